package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openmart/storecore/internal/domain"
	"github.com/openmart/storecore/pkg/metrics"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	drainEvery := a.appConfig.Checkout.DrainInterval
	if drainEvery <= 0 {
		drainEvery = 300
	}
	_, err = a.sched.AddFunc(fmt.Sprintf("@every %ds", drainEvery), func() {
		a.SchedDemandDrainSweep()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	// Orphaned cart lines can survive a crash between a product delete and
	// its cascade; sweep them out daily.
	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedClearOrphanCartLines()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	// Collect CPU usage
	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge("system_cpuuse", int64(_cpuuse[0]*100)) // Store as percentage * 100
	}

	// Collect memory usage
	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge("system_memuse", int64(_meminfo.Used/1024/1024))
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}

	// Collect process CPU usage
	cpuuse, err := p.CPUPercent()
	if err == nil {
		metrics.SetGauge("storecore_cpuuse", int64(cpuuse*100)) // Store as percentage * 100
	}

	// Collect process memory usage
	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge("storecore_memuse", int64(meminfo.RSS/1024/1024))
	}
}

// SchedDemandDrainSweep drains outstanding demand for every product that has
// stock again. Catches drains missed around a restock event.
func (a *Application) SchedDemandDrainSweep() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ids, err := a.demands.ProductsWithDemand(ctx)
	if err != nil {
		zap.L().Warn("drain sweep failed to list demanded products", zap.Error(err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, pid := range ids {
		pid := pid
		g.Go(func() error {
			stock, err := a.inventory.GetStock(gctx, pid)
			if err != nil || stock <= 0 {
				return nil
			}
			if err := a.demands.Drain(gctx, pid); err != nil {
				zap.L().Warn("drain sweep failed", zap.String("prodid", pid), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// SchedClearOrphanCartLines removes cart lines whose product no longer exists
func (a *Application) SchedClearOrphanCartLines() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	a.gormDB.
		Where("prodid not in (?)", a.gormDB.Model(&domain.Product{}).Select("pid")).
		Delete(&domain.CartItem{})
}
