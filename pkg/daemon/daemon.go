package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/recal/pkg/config"
	"github.com/charlie0129/recal/pkg/events"
	"github.com/charlie0129/recal/pkg/recalibration"
)

var (
	conf         config.Config
	recalHandler *recalibration.Handler
	sseHub       = events.NewEventHub()
	runQueue     = make(chan queuedRun, queueSize)
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.POST("/recalibrate", postRecalibrate)
	router.GET("/status", getStatus)
	router.GET("/events", getEvents)
	router.GET("/version", getVersion)

	return router
}

func newHandler(c config.Config) *recalibration.Handler {
	return recalibration.NewHandler(recalibration.Options{
		States:       homeAssistantStates{},
		Open:         openConsole,
		StepInterval: c.StepInterval(),
		Events:       sseHub,
	})
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	recalHandler = newHandler(conf)

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
			requestListenerRestart()
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// A stale socket from an unclean exit would make Listen fail.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("failed to remove stale socket %s: %v", unixSocketPath, err)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Debugln("recalibration worker starts")
		runWorker(ctx)
		logrus.Debugln("recalibration worker stopped")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		superviseListener(ctx)
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	shutdownCancel()

	logrus.Info("stopping recalibration worker")
	cancel()
	wg.Wait()

	logrus.Info("exiting")
	return nil
}
