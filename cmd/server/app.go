package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"agriadvisor/config"
	"agriadvisor/database"
	"agriadvisor/pkg/ai"
	"agriadvisor/pkg/climate"
	"agriadvisor/pkg/logger"
	"agriadvisor/router"

	alertCtrlImp "agriadvisor/pkg/alert/controllerImp"
	alertRepoImp "agriadvisor/pkg/alert/repositoryImp"
	alertSvcImp "agriadvisor/pkg/alert/serviceImp"

	fieldCtrlImp "agriadvisor/pkg/field/controllerImp"
	fieldRepoImp "agriadvisor/pkg/field/repositoryImp"
	fieldSvcImp "agriadvisor/pkg/field/serviceImp"

	recCtrlImp "agriadvisor/pkg/recommend/controllerImp"
	recRepoImp "agriadvisor/pkg/recommend/repositoryImp"
	recSvcImp "agriadvisor/pkg/recommend/serviceImp"

	"agriadvisor/pkg/journal"
	journalRepo "agriadvisor/pkg/journal/repository"
	journalRepoImp "agriadvisor/pkg/journal/repositoryImp"

	healthCtrlImp "agriadvisor/pkg/health/controllerImp"
	"agriadvisor/pkg/notify"
	notifyCtrlImp "agriadvisor/pkg/notify/controllerImp"
	"agriadvisor/pkg/weather"
)

type app struct {
	Echo    *echo.Echo
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires stores, services and controllers from cfg. Optional
// backends (journal, redis, remote yield model, weather bulletin) are only
// built when configured.
func buildApp(ctx context.Context, cfg config.AppConfig, log *logger.Logger) (*app, error) {
	a := &app{}

	// 1) Crop rules
	rules, err := climate.LoadFromFiles(cfg.CropRulesCSV, cfg.CropRulesXLSX)
	if err != nil {
		return nil, err
	}
	gen := climate.NewGenerator(rules, climate.Thresholds{
		LowMoisture: cfg.LowMoistureThreshold,
		PestRisk:    cfg.PestRiskThreshold,
	})

	// 2) Stores
	fRepo := fieldRepoImp.New()
	aRepo := alertRepoImp.New()
	rCache := recRepoImp.New()

	// 3) Journal
	var db *gorm.DB
	rec := journalRepo.Nop()
	if cfg.JournalEnabled {
		db, err = database.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := database.Close(db); err != nil {
				log.Warn("close journal", "error", err)
			}
		})
		rec = journalRepoImp.New(db)
		stats, err := journal.Restore(ctx, rec, fRepo, aRepo, rCache, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Info("journal restored",
			"fields", stats.Fields, "snapshots", stats.Snapshots, "alerts", stats.Alerts,
			"recommendations", stats.Recommendations, "skipped", stats.Skipped)
	}

	// 4) Events
	var sinks []notify.Publisher
	if cfg.RedisAddr != "" {
		pub, err := notify.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisChannel, log)
		if err != nil {
			log.Warn("redis unavailable, events stay in-process", "addr", cfg.RedisAddr, "error", err)
		} else {
			sinks = append(sinks, pub)
			a.closers = append(a.closers, func() { _ = pub.Close() })
		}
	}
	hub := notify.NewHub(0, log, sinks...)
	a.closers = append(a.closers, hub.Close)

	// 5) Yield model
	model := ai.NewTable()
	if cfg.YieldModelEndpoint != "" {
		model = ai.NewRemote(cfg.YieldModelEndpoint, cfg.YieldModelKey, log)
	}

	// 6) Services
	fSvc := fieldSvcImp.NewFieldService(fRepo, hub, rec, log)
	rSvc := recSvcImp.NewRecommendationService(fRepo, rCache, gen, model, hub, rec, log, recSvcImp.Options{
		Timeout:    cfg.RecommendationTimeout,
		StaleAfter: cfg.StaleAfter,
	})
	aSvc := alertSvcImp.NewAlertService(fRepo, aRepo, rSvc, gen, hub, rec, log)

	// 7) Controllers
	var bulletin weather.Source
	if cfg.WeatherBulletinURL != "" {
		bulletin = weather.NewClient(cfg.WeatherBulletinURL, log)
	}
	stats := func() healthCtrlImp.EngineStats {
		active, acked := aSvc.Counts()
		return healthCtrlImp.EngineStats{
			ActiveFields:          len(fSvc.ListActive()),
			ActiveAlerts:          active,
			AcknowledgedAlerts:    acked,
			CachedRecommendations: rCache.Len(),
			Computations:          rSvc.Computations(),
			LastEventSeq:          hub.LastSeq(),
		}
	}

	a.Echo = router.New(
		echo.New(),
		log,
		fieldCtrlImp.NewFieldCtrl(fSvc, aSvc, bulletin),
		alertCtrlImp.NewAlertCtrl(aSvc),
		recCtrlImp.NewRecommendationCtrl(rSvc),
		notifyCtrlImp.NewEventsCtrl(hub),
		healthCtrlImp.NewHealthCtrl(db, stats),
	)
	return a, nil
}
