package app

import (
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/openmart/storecore/config"
	"github.com/openmart/storecore/internal/cart"
	"github.com/openmart/storecore/internal/checkout"
	"github.com/openmart/storecore/internal/demand"
	"github.com/openmart/storecore/internal/domain"
	"github.com/openmart/storecore/internal/inventory"
	"github.com/openmart/storecore/internal/notify"
	"github.com/openmart/storecore/pkg/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	notifier  *notify.Dispatcher
	inventory *inventory.Service
	carts     *cart.Service
	demands   *demand.Service
	checkout  *checkout.Service
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.OutputPaths = []string{"stdout"}
	if cfg.Logger.FileEnable {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.Logger.Filename)
	}

	// Build logger with file rotation if enabled
	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)

	// Initialize metrics with workdir convention
	err = metrics.InitMetrics(cfg.System.Workdir)
	if err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	// Initialize database connection
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	// Ensure database schema is migrated before wiring services
	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.initServices()
	a.checkProducts()
	a.initJob()
}

// initServices wires the fulfillment services. The inventory ledger, cart
// store and backorder queue reference each other; the back-references are
// closed with setters before the orchestrator is built on top.
func (a *Application) initServices() {
	a.notifier = notify.NewDispatcher()
	a.notifier.SubscribeAll(notify.NewMailSink(a.appConfig.Smtp))

	a.inventory = inventory.NewService(a.gormDB, inventory.NewGormRepository(a.gormDB))

	demands, err := demand.NewService(
		demand.NewGormRepository(a.gormDB),
		a.inventory,
		a.notifier,
		a.appConfig.Checkout.DrainWorkers,
	)
	if err != nil {
		zap.S().Errorf("failed to create demand service: %v", err)
		return
	}
	a.demands = demands

	a.carts = cart.NewService(a.gormDB, cart.NewGormRepository(a.gormDB), a.inventory, a.demands)
	a.inventory.SetCartRemover(a.carts)
	a.inventory.SetRestockListener(a.demands)

	a.checkout = checkout.NewService(
		a.gormDB,
		checkout.NewGormRepository(a.gormDB),
		a.carts,
		a.inventory,
		a.notifier,
	)
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		if err := a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	} else {
		if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	}
	return nil
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Inventory returns the inventory ledger
func (a *Application) Inventory() *inventory.Service {
	return a.inventory
}

// Carts returns the cart store
func (a *Application) Carts() *cart.Service {
	return a.carts
}

// Demands returns the backorder queue
func (a *Application) Demands() *demand.Service {
	return a.demands
}

// Checkout returns the fulfillment orchestrator
func (a *Application) Checkout() *checkout.Service {
	return a.checkout
}

// Notifier returns the notification dispatcher
func (a *Application) Notifier() *notify.Dispatcher {
	return a.notifier
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}

	if a.demands != nil {
		a.demands.Release()
	}

	_ = metrics.Close()
	_ = zap.L().Sync()
}
