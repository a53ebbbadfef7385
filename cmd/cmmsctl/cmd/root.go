package cmd

import (
	"fmt"
	"os"
	"strings"

	"cmms-engine/internal/adapters/persistence/repositories"
	"cmms-engine/internal/config"
	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/core/ports"
	"cmms-engine/internal/core/services"
	"cmms-engine/internal/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	actorID   string
	actorRole string
)

var rootCmd = &cobra.Command{
	Use:   "cmmsctl",
	Short: "cmmsctl runs maintenance schedules and inspects work orders",
	Long: `cmmsctl is the operator tool of the CMMS engine.

It talks to the engine's database directly, using the same configuration as
the server (.env file or environment variables, see APP_MODE and DEV_DB_* /
PROD_DB_*).

Common workflows:

  List schedules that are due now:
    cmmsctl schedules due

  Generate work orders for every due schedule (cron-friendly):
    cmmsctl schedules run-due

  Record a meter reading on a threshold schedule:
    cmmsctl schedules reading <schedule-id> 512.5 --actor tech-1 --role TECHNICIAN

  Show a work order with its parts and history:
    cmmsctl workorders show <work-order-id>`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// Services bundles the workflow services used by the commands
type Services struct {
	WorkOrders services.WorkOrderUseCases
	Parts      services.PartsUseCases
	Schedules  services.ScheduleUseCases
}

// NewServices builds every workflow service over one unit of work
func NewServices(uow ports.UnitOfWork, opts services.Options) *Services {
	return &Services{
		WorkOrders: services.NewWorkOrderService(uow, opts),
		Parts:      services.NewPartsService(uow, opts),
		Schedules:  services.NewScheduleService(uow, opts),
	}
}

// openServices connects to the configured database. Tests replace it.
var openServices = func() (*Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithOutput(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	threshold := cfg.Engine.ApprovalThreshold
	svc := NewServices(repositories.NewStore(db), services.Options{
		Logger: log,
		Retry: services.RetryPolicy{
			MaxRetries: cfg.Engine.ConflictMaxRetries,
			Backoff:    cfg.Engine.ConflictRetryBackoff,
		},
		ApprovalThreshold: &threshold,
	})
	return svc, func() { config.CloseDatabase() }, nil
}

// withServices opens the services for the duration of fn
func withServices(fn func(svc *Services) error) error {
	svc, closeFn, err := openServices()
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}

// actor returns the caller named by the --actor and --role flags
func actor() (domain.Actor, error) {
	role := domain.Role(strings.ToUpper(strings.TrimSpace(actorRole)))
	switch role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician,
		domain.RoleStockManager, domain.RoleRequester, domain.RoleSystem:
	default:
		return domain.Actor{}, fmt.Errorf("unknown role %q", actorRole)
	}
	if strings.TrimSpace(actorID) == "" {
		return domain.Actor{}, fmt.Errorf("--actor must not be empty")
	}
	return domain.Actor{ID: actorID, Role: role}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", domain.SystemActor.ID, "ID of the user performing the command")
	rootCmd.PersistentFlags().StringVar(&actorRole, "role", string(domain.RoleSystem),
		"role of the actor (ADMIN, MANAGER, TECHNICIAN, STOCK_MANAGER, REQUESTER, SYSTEM)")
}
