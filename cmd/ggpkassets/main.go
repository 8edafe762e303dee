// Command ggpkassets wires the configuration, the extraction
// pipeline and the backend query surface together behind an HTTP
// server. It exists for manual smoke-testing the packages in this
// module, not as a designed command-line surface: flag parsing here
// is intentionally minimal.
package main

import (
	"flag"
	"log"

	"github.com/mogaika/ggpkassets/config"
	"github.com/mogaika/ggpkassets/web"
)

func main() {
	var addr, configPath, webPath string
	flag.StringVar(&addr, "i", ":8000", "address of server")
	flag.StringVar(&configPath, "config", "config.json", "path to configuration file")
	flag.StringVar(&webPath, "web", "web", "path to web static assets")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	app := web.NewApp(cfg)

	if err := web.StartServer(addr, app, webPath); err != nil {
		log.Fatal(err)
	}
}
