package myhttp

import (
	"fmt"
	"os"
)

// GuessHostnameWithScheme derives the externally reachable base URL of this
// service. Needed when registering push subscriptions at startup, where no
// incoming request is available to derive it from.
func GuessHostnameWithScheme() string {
	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project != "" {
		return fmt.Sprintf("https://%s.appspot.com", project)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return fmt.Sprintf("http://localhost:%s", port)
}
