// Command ffpoll runs a synchronization engine and prints its notifications. It is useful for checking
// a configuration against a live service or a local data file.
//
//	ffpoll -config ./ffpoll.yaml
//	ffpoll -flags ./testdata/flags.yaml -watch
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	ffclient "github.com/ffsync/go-server-sdk"
	"github.com/ffsync/go-server-sdk/fffiledata"
	"github.com/ffsync/go-server-sdk/fffilewatch"
	"github.com/ffsync/go-server-sdk/interfaces"
)

func main() {
	configPath := flag.String("config", "", "YAML or JSON configuration file")
	flagsPath := flag.String("flags", "", "read flags and segments from this file instead of the service")
	watch := flag.Bool("watch", false, "with -flags, reread the file only when it changes")
	environment := flag.String("env", "", "environment identifier, overriding the configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	var config ffclient.Config
	if *configPath != "" {
		c, err := ffclient.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		config = c
	}
	if *environment != "" {
		config.Environment = *environment
	}
	loggers := ldlog.NewDefaultLoggers()
	if *debug {
		loggers.SetMinLevel(ldlog.Debug)
	}
	config.Loggers = &loggers
	if *flagsPath != "" {
		source := fffiledata.DataSource().FilePaths(*flagsPath)
		if *watch {
			source.Reloader(fffilewatch.WatchFiles)
		}
		config.RemoteSource = source
		if config.Environment == "" {
			config.Environment = "local"
		}
	}

	engine, err := ffclient.New(config, interfaces.NotifierFuncs{
		Ready: func() { log.Println("ready") },
		Error: func(message string) { log.Println("error:", message) },
	})
	if err != nil {
		log.Fatal(err)
	}
	statusCh := engine.AddStatusListener()
	engine.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case status, ok := <-statusCh:
			if !ok {
				return
			}
			log.Println(status)
		case <-sigCh:
			engine.RemoveStatusListener(statusCh)
			if err := engine.Close(); err != nil {
				log.Println("close:", err)
			}
			return
		}
	}
}
