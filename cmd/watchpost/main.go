package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/guardops/watchpost"
	"github.com/guardops/watchpost/api/opsapi"
	"github.com/guardops/watchpost/cmd/watchpost/config"
	"github.com/guardops/watchpost/internal/logger"
	"github.com/guardops/watchpost/internal/version"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	logger.Init()
	log.Info("Loaded Config")
	c := config.Get()

	backs, err := config.LoadStorageBackends(c.Storage, c.Buildings)
	if err != nil {
		log.Fatal(err)
	}

	serverConf := c.Server
	serverConf.AccessLog = logger.AccessWriter()
	wp, err := watchpost.NewWatchpost(
		serverConf,
		opsapi.Config{
			UploadsDir:   c.Storage.UploadsDir,
			EventsDir:    c.Storage.EventsDir,
			TmpDir:       c.Storage.TmpDir,
			TemplatePath: c.Web.TemplatePath,
			StaticDir:    c.Web.StaticDir,
			Buildings:    c.Buildings.StatsRoster,
			BaseHolidays: c.Buildings.Holidays,
		},
		backs,
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(version.Banner(0))
	log.WithField("version", version.VERSION).Info("Starting watchpost")
	wp.Start()
}
