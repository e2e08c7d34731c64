package squareevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/BluCollarBookings/backend-server/lib/myerrors"
	"github.com/BluCollarBookings/backend-server/lib/myevents"
)

const (
	TopicName                  = "squareoauth"
	tokenExchangeCompletedName = TopicName + ".tokenExchange.completed"
	tokenRefreshCompletedName  = TopicName + ".tokenRefresh.completed"
)

type EventService interface {
	Subscribe(c context.Context) error
	OnTokenExchangeCompleted(c context.Context, topic string, event TokenExchangeCompleted) error
	OnTokenRefreshCompleted(c context.Context, topic string, event TokenRefreshCompleted) error
}

func DispatchEvent(c context.Context, reader io.Reader, service EventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case tokenExchangeCompletedName:
		{
			event := TokenExchangeCompleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnTokenExchangeCompleted(c, envelope.Topic, event)
		}
	case tokenRefreshCompletedName:
		{
			event := TokenRefreshCompleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnTokenRefreshCompleted(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("%s", envelope.EventTypeName))
	}
}

type TokenExchangeCompleted struct {
	CompanyUID string
	MerchantID string
}

func (e TokenExchangeCompleted) GetEventTypeName() string {
	return tokenExchangeCompletedName
}

func (e TokenExchangeCompleted) GetAggregateName() string {
	return e.CompanyUID
}

type TokenRefreshCompleted struct {
	UID        string
	CompanyUID string
}

func (e TokenRefreshCompleted) GetEventTypeName() string {
	return tokenRefreshCompletedName
}

func (e TokenRefreshCompleted) GetAggregateName() string {
	return e.CompanyUID
}
