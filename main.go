package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BluCollarBookings/backend-server/config"
	"github.com/BluCollarBookings/backend-server/lib/myevents"
	"github.com/BluCollarBookings/backend-server/lib/mypublisher"
	"github.com/BluCollarBookings/backend-server/lib/mypubsub"
	"github.com/BluCollarBookings/backend-server/lib/myqueue"
	"github.com/BluCollarBookings/backend-server/lib/mystore"
	"github.com/BluCollarBookings/backend-server/lib/mytime"
	"github.com/BluCollarBookings/backend-server/lib/myuuid"
	"github.com/BluCollarBookings/backend-server/services/frontend"
	"github.com/BluCollarBookings/backend-server/services/squareoauth"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/squareclient"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/tokenstore"
)

func main() {
	c := context.Background()

	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("Error parsing configuration: %s", err)
	}

	credentials, err := cfg.ResolveStoreCredentials()
	if err != nil {
		log.Fatalf("Error resolving store credentials: %s", err)
	}
	storeConfig := mystore.Config{
		ProjectID:       cfg.GoogleCloudProject,
		CredentialsJSON: credentials,
		Endpoint:        cfg.StoreEndpoint,
	}

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	router := mux.NewRouter()

	outbox, outboxCleanup, err := mystore.New[myevents.EventEnvelope](c, storeConfig)
	if err != nil {
		log.Fatalf("Error creating outbox store: %s", err)
	}
	defer outboxCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c, mypubsub.Config{
		ProjectID: cfg.GoogleCloudProject,
	})
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c, myqueue.Config{
		ProjectID:  cfg.GoogleCloudProject,
		LocationID: cfg.LocationID,
		QueueName:  cfg.QueueName,
	})
	if err != nil {
		log.Fatalf("Error creating task-queue: %s", err)
	}
	defer queueCleanup()

	publisher := mypublisher.New(outbox, pubsub, queue, nower)
	publisher.RegisterEndpoints(c, router)

	tokenRecordStore, storeCleanup, err := mystore.New[tokenstore.TokenRecord](c, storeConfig)
	if err != nil {
		log.Fatalf("Error creating token-record store: %s", err)
	}
	defer storeCleanup()

	squareClient := squareclient.New(squareclient.Config{
		BaseURL:      cfg.SquareBaseURL,
		ClientID:     cfg.SquareClientID,
		ClientSecret: cfg.SquareClientSecret,
		RedirectURI:  cfg.SquareRedirectURI,
	})

	squareOauthService := squareoauth.NewService(squareoauth.Params{
		AppRedirectURI:     cfg.AppRedirectURI,
		RequireCompanyUUID: cfg.RequireCompanyUUID,
	}, tokenstore.New(tokenRecordStore, nower), squareClient, nower, uuider, publisher, pubsub)
	err = squareOauthService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering square-oauth endpoints: %s", err)
	}

	// Must come last because it claims every remaining path.
	frontendService := frontend.NewService()
	err = frontendService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering frontend endpoints: %s", err)
	}

	startWebServerBlocking(router, cfg.Port)
}

func startWebServerBlocking(router *mux.Router, port string) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
