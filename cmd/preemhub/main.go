// Command preemhub serves the race hierarchy, its public pages and the
// organizer console.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/preemhub/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
