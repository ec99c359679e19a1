package app

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"posguard/app/services/commandproc"
	"posguard/app/services/diagnostics"
	"posguard/app/services/discovery"
	"posguard/app/services/heartbeat"
	"posguard/app/services/inventorysync"
	"posguard/app/services/ipclaim"
	"posguard/app/services/monitor"
	"posguard/app/services/selfupdate"
	"posguard/config/appconf"
	"posguard/domain/statuslog"
	"posguard/internal/cmdexec"
	"posguard/internal/configstore"
	"posguard/internal/controlplane"
	"posguard/internal/hub"
	"posguard/internal/netguard"
	"posguard/internal/netif"
	"posguard/internal/netprobe"
	gormRepo "posguard/internal/repository/gorm"
	"posguard/internal/update"
	"posguard/internal/vitals"
)

// Container wires every long-lived dependency once at startup. Services
// only see the narrow interfaces they declare; the container is the one
// place that knows the concrete graph.
type Container struct {
	DB           *gorm.DB
	Store        *configstore.Store
	Hub          *hub.Hub
	Guard        *netguard.Guard
	Links        *netif.Reader
	Prober       *netprobe.Prober
	ControlPlane *controlplane.Client
	Journal      statuslog.Repository
	AgentID      string

	Monitor       monitor.Service
	Discovery     discovery.Service
	Diagnostics   diagnostics.Service
	Heartbeat     heartbeat.Service
	InventorySync inventorysync.Service
	Updater       selfupdate.Service
	Commands      commandproc.Service
	Claimer       ipclaim.Service
}

func NewContainer(db *gorm.DB) (*Container, error) {
	store := configstore.New(appconf.DataDir())
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load agent config: %w", err)
	}

	links := netif.New()
	agentID := links.AgentMAC()

	runner := cmdexec.New(0)
	wired := appconf.NetInterface()
	if wired == "" {
		wired = links.WiredName()
	}
	prober := netprobe.New(runner, wired)
	guard := netguard.New()
	events := hub.New()
	journal := gormRepo.NewStatusLogRepository(db)

	cp, err := controlplane.NewClient(controlplane.Config{
		BaseURL:  appconf.ControlPlaneURL(),
		AgentKey: appconf.AgentKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build control plane client: %w", err)
	}

	inventorySvc := inventorysync.NewWithDependencies(store, cp, agentID)
	monitorSvc := monitor.NewWithDependencies(
		store,
		prober,
		links,
		netif.NewThroughput(),
		vitals.New(),
		events,
		journal,
		cp,
		guard,
		agentID,
	)
	discoverySvc := discovery.NewWithDependencies(
		store,
		discovery.NewNmapScanner(runner),
		links,
		events,
		guard,
		inventorySvc,
		agentID,
	)
	diagnosticsSvc := diagnostics.NewWithDependencies(prober, events, guard, agentID)
	heartbeatSvc := heartbeat.NewWithDependencies(cp, links, agentID)
	claimSvc := ipclaim.NewWithDependencies(store, prober, links, guard)

	updater, err := buildUpdater(cp, runner, journal, agentID)
	if err != nil {
		return nil, err
	}

	commands := commandproc.NewWithDependencies(cp, discoverySvc, diagnosticsSvc, updater, runner, journal)

	return &Container{
		DB:           db,
		Store:        store,
		Hub:          events,
		Guard:        guard,
		Links:        links,
		Prober:       prober,
		ControlPlane: cp,
		Journal:      journal,
		AgentID:      agentID,

		Monitor:       monitorSvc,
		Discovery:     discoverySvc,
		Diagnostics:   diagnosticsSvc,
		Heartbeat:     heartbeatSvc,
		InventorySync: inventorySvc,
		Updater:       updater,
		Commands:      commands,
		Claimer:       claimSvc,
	}, nil
}

func buildUpdater(cp *controlplane.Client, runner cmdexec.Runner, journal statuslog.Repository, agentID string) (selfupdate.Service, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve own binary path: %w", err)
	}

	paths := update.NewPaths(filepath.Join(appconf.DataDir(), "update"))
	executor := selfupdate.NewExecutor(selfupdate.ExecutorConfig{
		ControlPlane: cp,
		Runner:       runner,
		Paths:        paths,
		ExecPath:     execPath,
		AgentID:      agentID,
		RestartCmd:   appconf.RestartCommand(),
	})
	lock := update.NewLockManager(update.LockConfig{LockPath: paths.LockFile})
	state := update.NewStateWriter(paths.StateFile)

	return selfupdate.NewWithDependencies(executor, cp, lock, state, journal, appconf.SelfUpdateEnabled), nil
}

func (c *Container) Migrate() error {
	return c.DB.AutoMigrate(&statuslog.Entry{})
}

// Close releases everything the container owns.
func (c *Container) Close() {
	c.Hub.Close()
}
