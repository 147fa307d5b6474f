package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"os"

	"github.com/palisade/palisade/pkg/cache"
	"github.com/palisade/palisade/pkg/coordinator"
	"github.com/palisade/palisade/pkg/directory"
	"github.com/palisade/palisade/pkg/model"
	"github.com/palisade/palisade/pkg/policy"
	"github.com/palisade/palisade/pkg/resource"
	"github.com/palisade/palisade/pkg/splitter"
	"github.com/palisade/palisade/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const denyByDefaultRego = `package palisade.rules.visible

import rego.v1

default result := false
`

const ageOffRego = `package palisade.rules.ageoff

import rego.v1

default result := true
`

func newDemoCommand() *cobra.Command {
	var (
		resourceName string
		userID       string
		hint         int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Register a data request and plan input splits against in-memory fixtures",
		Long: `demo seeds a User Directory, Resource Provider and Policy Resolver with a
small fixture dataset, then runs a RegisterDataRequest through the
Coordinator and a GetSplits through the Split Planner, printing the
resulting input splits as JSON.

The fixture resource "orders" expands to five leaf resources under a
single ancestor "/region/eu". The data type carries a deny-by-default
rule; the ancestor carries an allow-everything age-off rule plus a
negation that removes the data type's deny rule, so all five leaves
remain accessible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), resourceName, userID, hint)
		},
	}

	cmd.Flags().StringVar(&resourceName, "resource", "orders", "logical resource name to request")
	cmd.Flags().StringVar(&userID, "user", "alice", "requesting user id")
	cmd.Flags().IntVar(&hint, "hint", 2, "max parallelism hint for split planning")

	return cmd
}

func runDemo(ctx context.Context, resourceName, userID string, hint int) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	telCfg := telemetry.DefaultConfig()
	telCfg.Logging.Output = "stderr"
	telCfg.Tracing.Enabled = false
	tel, err := telemetry.NewTelemetry(telCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() { _ = tel.Shutdown(ctx) }()

	gateway, closeGateway, err := newGateway(ctx, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache gateway: %w", err)
	}
	defer closeGateway()

	dir := directory.New(gateway, logger)
	if _, err := dir.AddUser(ctx, model.User{ID: model.UserID(userID), Roles: []string{"analyst"}}); err != nil {
		return fmt.Errorf("failed to seed directory: %w", err)
	}

	provider := resource.NewMemoryProvider(logger)
	ancestor := model.RootResource{RID: "/region/eu"}
	leaves := make([]model.ResourceAccess, 0, 5)
	for i := 0; i < 5; i++ {
		leaf := model.LeafResource{
			ChildResource: model.ChildResource{
				RID:            fmt.Sprintf("/region/eu/orders-%d", i),
				ParentResource: ancestor,
			},
			Type:   "orders",
			Format: "json",
		}
		leaves = append(leaves, model.ResourceAccess{
			Resource:   leaf,
			Connection: model.ConnectionDetail{Endpoint: fmt.Sprintf("tcp://node-%d.internal:9000", i)},
		})
	}
	if _, err := provider.AddResource(ctx, resourceName, leaves); err != nil {
		return fmt.Errorf("failed to seed resource provider: %w", err)
	}

	resolver := policy.New(gateway, logger)
	if _, err := resolver.SetTypePolicy(ctx, "orders", policy.Binding{
		ResourceRules: []policy.RuleSpec{{Name: "visible", Rego: denyByDefaultRego}},
		RecordRules:   []policy.RuleSpec{{Name: "visible", Rego: denyByDefaultRego}},
	}); err != nil {
		return fmt.Errorf("failed to seed data-type policy: %w", err)
	}
	if _, err := resolver.SetResourcePolicy(ctx, ancestor.ID(), policy.Binding{
		ResourceRules: []policy.RuleSpec{
			{Name: "ageoff", Rego: ageOffRego},
			{Name: "visible", Negation: true, Target: "visible"},
		},
		RecordRules: []policy.RuleSpec{
			{Name: "ageoff", Rego: ageOffRego},
			{Name: "visible", Negation: true, Target: "visible"},
		},
	}); err != nil {
		return fmt.Errorf("failed to seed ancestor policy: %w", err)
	}

	coord := coordinator.New(dir, provider, resolver, gateway, 0, logger, tel)
	planner := splitter.New(coord, logger, tel)

	job := splitter.NewJob([]model.RegisterDataRequest{
		{ResourceName: resourceName, UserID: model.UserID(userID), Context: model.Context{Justification: "demo smoke test"}},
	})
	if err := job.SetMaxParallelismHint(hint); err != nil {
		return fmt.Errorf("invalid hint: %w", err)
	}

	splits, err := planner.GetSplits(ctx, job)
	if err != nil {
		return fmt.Errorf("failed to plan splits: %w", err)
	}

	out, err := json.MarshalIndent(splits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal splits: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func newGateway(ctx context.Context, logger zerolog.Logger) (cache.Gateway, func(), error) {
	if cachePath == "" {
		return cache.NewMemoryGateway(), func() {}, nil
	}

	gw, err := cache.NewSQLiteGateway(cache.Config{Path: cachePath}, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := gw.Init(ctx); err != nil {
		return nil, nil, err
	}
	if err := gw.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	return gw, func() { _ = gw.Close() }, nil
}
