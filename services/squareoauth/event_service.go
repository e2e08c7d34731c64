package squareoauth

import (
	"context"
	"fmt"

	"github.com/BluCollarBookings/backend-server/lib/myhttp"
	"github.com/BluCollarBookings/backend-server/lib/mylog"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/squareevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.CreateTopic(c, squareevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", squareevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, squareevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/square/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", squareevents.TopicName, err)
	}

	return nil
}

func (s *service) OnTokenExchangeCompleted(c context.Context, topic string, event squareevents.TokenExchangeCompleted) error {
	s.logger.Log(c, event.CompanyUID, mylog.SeverityInfo, "Company '%s' connected to Square merchant '%s'", event.CompanyUID, event.MerchantID)

	return nil
}

func (s *service) OnTokenRefreshCompleted(c context.Context, topic string, event squareevents.TokenRefreshCompleted) error {
	s.logger.Log(c, event.CompanyUID, mylog.SeverityInfo, "Token of company '%s' was refreshed (%s)", event.CompanyUID, event.UID)

	return nil
}
