package services

import (
	"log/slog"

	"github.com/SAP-F-2025/exercise-engine/internal/correction"
	"github.com/SAP-F-2025/exercise-engine/internal/events"
	"github.com/SAP-F-2025/exercise-engine/internal/repositories"
	"github.com/SAP-F-2025/exercise-engine/internal/validator"
)

// ServiceManager exposes the services the HTTP layer depends on
type ServiceManager interface {
	Exercise() ExerciseService
	Export() ExportService
	Analytics() AnalyticsService
}

type serviceManager struct {
	exercise  ExerciseService
	export    ExportService
	analytics AnalyticsService
}

func NewServiceManager(
	snapshots repositories.SnapshotRepository,
	client correction.Client,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger *slog.Logger,
) ServiceManager {
	exercise := NewExerciseService(ExerciseServiceConfig{
		Snapshots: snapshots,
		Client:    client,
		Publisher: publisher,
		Validator: validator,
		Logger:    logger,
	})
	return &serviceManager{
		exercise:  exercise,
		export:    NewExportService(exercise, snapshots, logger),
		analytics: NewAnalyticsService(snapshots, logger),
	}
}

func (m *serviceManager) Exercise() ExerciseService { return m.exercise }

func (m *serviceManager) Export() ExportService { return m.export }

func (m *serviceManager) Analytics() AnalyticsService { return m.analytics }
