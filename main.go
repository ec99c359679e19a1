package main

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shirou/gopsutil/v4/host"

	"posguard/app"
	"posguard/app/jobs/claimjob"
	"posguard/app/jobs/commandjob"
	"posguard/app/jobs/discoveryjob"
	"posguard/app/jobs/heartbeatjob"
	"posguard/app/jobs/monitorjob"
	"posguard/app/jobs/rebootjob"
	"posguard/app/jobs/updatejob"
	"posguard/config/appconf"
	"posguard/internal/cmdexec"
	"posguard/internal/dbconn"
)

func main() {
	db, err := dbconn.GetConn(
		dbconn.WithURL(appconf.DBURL()),
	)
	if err != nil {
		log.Fatal("db connection failed", err)
	}

	defer dbconn.Close()

	container, err := app.NewContainer(db)
	if err != nil {
		log.Fatal("container wiring failed", err)
	}
	defer container.Close()

	if err := container.Migrate(); err != nil {
		log.Fatal("migration failed", err)
	}

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	AddRoutes(e, container)

	ctx := context.Background()

	claimjob.New(container.Claimer).Register(ctx)

	// one reconcile with the control plane before the jobs settle in
	go func() {
		if err := container.InventorySync.Sync(ctx); err != nil {
			log.Println("initial inventory sync failed:", err)
		}
	}()

	heartbeatJob := heartbeatjob.New()
	heartbeatJob.Register(ctx, container.Heartbeat)
	defer heartbeatJob.Shutdown()

	monitorJob := monitorjob.New(func() time.Duration {
		seconds := container.Store.Snapshot().Settings.Network.PingIntervalSeconds
		if seconds <= 0 {
			seconds = 15
		}
		return time.Duration(seconds) * time.Second
	})
	monitorJob.Register(ctx, container.Monitor)
	defer monitorJob.Shutdown()

	discoveryJob := discoveryjob.New()
	discoveryJob.Register(ctx, container.Discovery)
	defer discoveryJob.Shutdown()

	commandJob := commandjob.New(container.AgentID)
	commandJob.Register(ctx, container.ControlPlane, container.ControlPlane, container.Commands)
	defer commandJob.Shutdown()

	rebootJob := rebootjob.New(func() (time.Duration, error) {
		seconds, err := host.Uptime()
		return time.Duration(seconds) * time.Second, err
	})
	rebootJob.Register(ctx, container.Store, container.Hub, container.Journal, cmdexec.New(0))
	defer rebootJob.Shutdown()

	if appconf.SelfUpdateEnabled() {
		updateJob := updatejob.New(container.AgentID, appconf.UpdateCheckInterval())
		updateJob.Register(ctx, container.ControlPlane, container.Updater)
		defer updateJob.Shutdown()
	}

	log.Fatal(e.Start(fmt.Sprintf(":%s", appconf.Port())))
}
