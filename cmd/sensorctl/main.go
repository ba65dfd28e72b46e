package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codeberg.org/arlen/sensorctl/internal/command"
	"codeberg.org/arlen/sensorctl/internal/config"
	"codeberg.org/arlen/sensorctl/internal/logger"
	"codeberg.org/arlen/sensorctl/internal/metrics"
	"codeberg.org/arlen/sensorctl/internal/publish"
	"codeberg.org/arlen/sensorctl/internal/sensor"
	"codeberg.org/arlen/sensorctl/internal/sensor/lidar"
	"codeberg.org/arlen/sensorctl/internal/sensor/ultrasonic"
	"codeberg.org/arlen/sensorctl/internal/stream"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

var (
	lidarLimits = sensor.Limits{
		MinRateHz: 1.0,
		MaxRateHz: 50.0,
		MinRangeM: 0.1,
		MaxRangeM: 100.0,
	}
	ultrasonicLimits = sensor.Limits{
		MinRateHz: 0.1,
		MaxRateHz: 100.0,
		MinRangeM: 0.1,
		MaxRangeM: 100.0,
	}
)

// family bundles the services of one sensor type after wiring.
type family struct {
	sensorType string
	control    *sensor.ControlService
	streaming  *stream.Service
	handler    *command.Handler
	defaults   config.SensorDefaults
	stopDetect func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(false, false, logger.IsService())
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Info().Msg("sensorctl starting")

	repo, err := telemetry.NewRepository(telemetry.Config{DBPath: cfg.Database})
	if err != nil {
		logger.Error().Err(err).Msg("telemetry repository unavailable, storage disabled")
		repo = telemetry.NopRepository{}
	}
	defer repo.Close()

	publisher := buildPublisher(cfg)
	defer publisher.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	families := []*family{
		buildLidar(cfg, repo, publisher, m),
		buildUltrasonic(cfg, repo, publisher, m),
	}

	for _, f := range families {
		if !f.defaults.AutoStart {
			continue
		}
		state := f.control.Start(nil)
		if !state.Active {
			logger.Error().
				Str("sensor", f.sensorType).
				Msg("auto-start failed")
			continue
		}
		interval := time.Duration(f.defaults.StreamInterval * float64(time.Second))
		if err := f.streaming.Start(interval); err != nil {
			logger.Error().
				Str("sensor", f.sensorType).
				Err(err).
				Msg("auto-start streaming failed")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("shutting down")
	shutdown(families)
}

func buildPublisher(cfg *config.Config) publish.Publisher {
	if cfg.Kafka.Enabled {
		p, err := publish.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err == nil {
			return p
		}
		logger.Error().Err(err).Msg("kafka publisher unavailable, falling back to log publisher")
	}

	return publish.Func(func(_ context.Context, sensorType string, s *telemetry.Sample) error {
		logger.Debug().
			Str("sensor", sensorType).
			Int64("ts", s.TS).
			Int("values", len(s.Values)).
			Msg("telemetry published")
		return nil
	})
}

func buildLidar(cfg *config.Config, repo telemetry.Repository, publisher publish.Publisher, m *metrics.Set) *family {
	defaults := familyConfig(cfg.Lidar)

	gen := lidar.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))
	queue := sensor.NewQueue(lidar.SensorType, cfg.QueueCapacity, m)
	collector := sensor.NewCollector(lidar.SensorType, gen, cfg.DataDir,
		sensor.WithQueue(queue),
		sensor.WithMetrics(m),
	)

	detector := lidar.NewOccupancyDetector(
		emitter(publisher, lidar.SensorType),
		lidar.WithOccupancyMetrics(m),
	)
	if err := detector.Start(queue); err != nil {
		logger.Error().Err(err).Msg("occupancy detector failed to start")
	}

	streaming := stream.NewService(lidar.SensorType, collector, publisher, repo, stream.WithMetrics(m))
	control := sensor.NewControlService(lidar.SensorType, defaults, lidarLimits, collector,
		sensor.WithStopHook(streamStopHook(streaming)),
	)

	return &family{
		sensorType: lidar.SensorType,
		control:    control,
		streaming:  streaming,
		handler:    command.NewHandler(lidar.SensorType, control, streaming),
		defaults:   cfg.Lidar,
		stopDetect: func() {
			if _, err := detector.Stop(); err != nil {
				logger.Warn().Err(err).Msg("occupancy detector stop failed")
			}
		},
	}
}

func buildUltrasonic(cfg *config.Config, repo telemetry.Repository, publisher publish.Publisher, m *metrics.Set) *family {
	defaults := familyConfig(cfg.Ultrasonic)

	gen := ultrasonic.NewGenerator(cfg.Ultrasonic.Channels, rand.New(rand.NewSource(time.Now().UnixNano())))
	queue := sensor.NewQueue(ultrasonic.SensorType, cfg.QueueCapacity, m)
	collector := sensor.NewCollector(ultrasonic.SensorType, gen, cfg.DataDir,
		sensor.WithQueue(queue),
		sensor.WithMetrics(m),
	)

	detector := ultrasonic.NewProximityDetector(cfg.Ultrasonic.Channels,
		emitter(publisher, ultrasonic.SensorType),
		ultrasonic.WithProximityMetrics(m),
	)
	if err := detector.Start(queue); err != nil {
		logger.Error().Err(err).Msg("proximity detector failed to start")
	}

	streaming := stream.NewService(ultrasonic.SensorType, collector, publisher, repo, stream.WithMetrics(m))
	control := sensor.NewControlService(ultrasonic.SensorType, defaults, ultrasonicLimits, collector,
		sensor.WithStopHook(streamStopHook(streaming)),
	)

	return &family{
		sensorType: ultrasonic.SensorType,
		control:    control,
		streaming:  streaming,
		handler: command.NewHandler(ultrasonic.SensorType, control, streaming,
			command.WithThresholdUpdater(detector)),
		defaults: cfg.Ultrasonic,
		stopDetect: func() {
			if _, err := detector.Stop(); err != nil {
				logger.Warn().Err(err).Msg("proximity detector stop failed")
			}
		},
	}
}

func familyConfig(d config.SensorDefaults) sensor.Config {
	return sensor.Config{
		RateHz:     d.RateHz,
		Resolution: sensor.Resolution(d.Resolution),
		RangeMinM:  d.RangeMinM,
		RangeMaxM:  d.RangeMaxM,
	}
}

// emitter adapts the publisher to the detector callback contract. Detection
// results share the family's bus key.
func emitter(publisher publish.Publisher, sensorType string) sensor.Emitter {
	return func(s *telemetry.Sample) {
		if err := publisher.Publish(context.Background(), sensorType, s); err != nil {
			logger.Error().
				Str("sensor", sensorType).
				Err(err).
				Msg("detection publish failed")
		}
	}
}

func streamStopHook(s *stream.Service) sensor.StopHook {
	return func() error {
		if !s.CurrentStatus().Streaming {
			return nil
		}
		_, err := s.Stop()
		return err
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics endpoint failed")
	}
}

func shutdown(families []*family) {
	for _, f := range families {
		if f.streaming.CurrentStatus().Streaming {
			if _, err := f.streaming.Stop(); err != nil {
				logger.Warn().
					Str("sensor", f.sensorType).
					Err(err).
					Msg("streaming stop failed during shutdown")
			}
		}
		if f.control.CurrentState().Active {
			if _, ok := f.control.Stop(); !ok {
				logger.Warn().
					Str("sensor", f.sensorType).
					Msg("sensor stop failed during shutdown")
			}
		}
		f.stopDetect()
	}
}
