// Command server runs the hashlink HTTP API.
package main

import (
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/serroba/hashlink/internal/container"
)

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		app := newApp(options)

		hooks.OnStart(app.run)
		hooks.OnStop(app.stop)
	})

	cli.Run()
}
