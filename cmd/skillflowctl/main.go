package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	"github.com/azizur-rahaman/skillflow-sub002/internal/repository"
	"github.com/azizur-rahaman/skillflow-sub002/internal/service"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/config"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/database"
)

var rootCmd = &cobra.Command{
	Use:   "skillflowctl",
	Short: "SkillFlow minting operations CLI",
	Long: `skillflowctl inspects the mintable skill catalog, seeds it into PostgreSQL,
runs a full minting session in-process and checks credential proofs.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SKILLFLOWCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("owner", "demo-learner", "learner id")
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("owner", rootCmd.PersistentFlags().Lookup("owner"))
}

func registerCommands() {
	rootCmd.AddCommand(skillsCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(verifyProofCmd())
}

func skillsCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "List mintable skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			var skills []models.MintableSkill
			switch source {
			case config.SkillSourceSimulated:
				skills = service.DemoSkills()
			case config.SkillSourcePostgres:
				err := withDatabase(cmd.Context(), func(ctx context.Context, repo *repository.SkillRepository) error {
					var err error
					skills, err = repo.ListMintableSkills(ctx, viper.GetString("owner"))
					return err
				})
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown source %q", source)
			}
			if viper.GetBool("json") {
				return printJSON(skills)
			}
			printSkills(skills)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", config.SkillSourceSimulated, "catalog source (simulated, postgres)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, _ *repository.SkillRepository) error {
				fmt.Println("migrations applied")
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the demo catalog for the owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner := viper.GetString("owner")
			return withDatabase(cmd.Context(), func(ctx context.Context, repo *repository.SkillRepository) error {
				skills := service.DemoSkills()
				for _, skill := range skills {
					skill.ID = owner + ":" + skill.ID
					if err := repo.Upsert(ctx, owner, skill); err != nil {
						return err
					}
				}
				fmt.Printf("seeded %d skills for %s\n", len(skills), owner)
				return nil
			})
		},
	}
}

func demoCmd() *cobra.Command {
	var (
		skillID  string
		realtime bool
		secret   string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a complete minting session in-process",
		RunE: func(cmd *cobra.Command, args []string) error {
			var delayer service.Delayer = service.NoopDelayer{}
			if realtime {
				delayer = service.TimerDelayer{}
			}
			deps := service.WorkflowDeps{
				Delayer: delayer,
				Observer: func(ctx context.Context, tx models.MintingTransaction) {
					if !viper.GetBool("json") {
						fmt.Printf("  %-20s %s\n", tx.Status, tx.UpdatedAt.Format(time.RFC3339))
					}
				},
			}
			if signer := service.NewCredentialSigner(secret, "SkillFlow Academy"); signer != nil {
				deps.Signer = signer
			}
			result, err := runDemo(cmd.Context(), viper.GetString("owner"), skillID, demoWorkflowConfig(), deps)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(result)
			}
			printCredential(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&skillID, "skill", "skill-react", "skill to mint")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "wait the simulated stage latencies")
	cmd.Flags().StringVar(&secret, "proof-secret", "", "sign the credential proof with this secret")
	return cmd
}

func verifyProofCmd() *cobra.Command {
	var secret, issuer string
	cmd := &cobra.Command{
		Use:   "verify-proof <token>",
		Short: "Check a credential proof",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signer := service.NewCredentialSigner(secret, issuer)
			if signer == nil {
				return fmt.Errorf("--secret is required")
			}
			claims, err := signer.Verify(args[0])
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(claims)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Field", "Value"})
			tw.AppendRow(table.Row{"Owner", claims.Subject})
			tw.AppendRow(table.Row{"Skill", fmt.Sprintf("%s (%d)", claims.SkillName, claims.SkillLevel)})
			tw.AppendRow(table.Row{"Token", claims.TokenID})
			tw.AppendRow(table.Row{"Contract", claims.ContractAddress})
			tw.AppendRow(table.Row{"Network", claims.Network})
			tw.AppendRow(table.Row{"Transaction", claims.TransactionHash})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "proof signing secret")
	cmd.Flags().StringVar(&issuer, "issuer", "SkillFlow Academy", "expected issuer")
	return cmd
}

// runDemo drives one session through every wizard step, submitting and
// verifying one evidence item per required type.
func runDemo(ctx context.Context, ownerID, skillID string, cfg service.WorkflowConfig, deps service.WorkflowDeps) (*models.MintResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	session := service.NewSession("", ownerID, cfg, deps)
	if _, err := session.LoadMintableSkills(ctx); err != nil {
		return nil, err
	}
	if err := session.SelectSkill(skillID); err != nil {
		return nil, err
	}
	state := session.Snapshot()
	if state.SelectedSkill == nil {
		return nil, fmt.Errorf("unknown skill %q", skillID)
	}
	session.NextStep()

	for _, req := range state.SelectedSkill.RequiredEvidence {
		if !req.Required {
			continue
		}
		for i := 0; i < req.EffectiveMinCount(); i++ {
			item, err := session.AddEvidence(ctx, models.EvidenceInput{
				Type:        req.Type,
				Title:       fmt.Sprintf("Demo %s #%d", req.Type, i+1),
				Description: req.Description,
			})
			if err != nil {
				return nil, err
			}
			if verified, _ := session.VerifyEvidence(ctx, item.ID); verified.Status != models.EvidenceStatusVerified {
				return nil, fmt.Errorf("evidence %s was %s", item.ID, verified.Status)
			}
		}
	}
	session.NextStep()

	if _, err := session.GenerateMetadata(); err != nil {
		return nil, err
	}
	session.NextStep()
	return session.MintCredential(ctx)
}

func demoWorkflowConfig() service.WorkflowConfig {
	return service.WorkflowConfig{
		Network:          "polygon-amoy",
		WalletAddress:    "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		ContractAddress:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		TokenStandard:    "ERC-721",
		Issuer:           "SkillFlow Academy",
		IssuerURL:        "https://skillflow.app",
		ImageBaseURL:     "https://skillflow.app/badges",
		IPFSGateway:      "https://ipfs.io/ipfs",
		PreparationDelay: time.Second,
		ApprovalDelay:    2 * time.Second,
		ConfirmDelay:     3 * time.Second,
		UploadDelay:      time.Second,
		VerifyDelay:      2 * time.Second,
	}
}

func withDatabase(ctx context.Context, fn func(context.Context, *repository.SkillRepository) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.NewPostgres(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := database.Migrate(ctx, db); err != nil {
		return err
	}
	return fn(ctx, repository.NewSkillRepository(db))
}

func printSkills(skills []models.MintableSkill) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Category", "Level", "Eligible", "Required Evidence"})
	for _, s := range skills {
		required := make([]string, 0, len(s.RequiredEvidence))
		for _, req := range s.RequiredEvidence {
			if req.Required {
				required = append(required, fmt.Sprintf("%s x%d", req.Type, req.EffectiveMinCount()))
			}
		}
		eligible := "yes"
		if !s.Eligible {
			eligible = "no"
			if s.IneligibilityReason != nil {
				eligible += ": " + *s.IneligibilityReason
			}
		}
		tw.AppendRow(table.Row{s.ID, s.Name, s.Category, s.Level, eligible, strings.Join(required, ", ")})
	}
	tw.Render()
}

func printCredential(result *models.MintResult) {
	cred := result.Credential
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle(result.Message)
	tw.AppendHeader(table.Row{"Field", "Value"})
	tw.AppendRow(table.Row{"Credential", cred.Name})
	tw.AppendRow(table.Row{"Token ID", cred.TokenID})
	tw.AppendRow(table.Row{"Contract", cred.ContractAddress})
	tw.AppendRow(table.Row{"Transaction", cred.TransactionHash})
	if tx := result.Transaction; tx.IPFSURL != nil {
		tw.AppendRow(table.Row{"Metadata", *tx.IPFSURL})
	}
	if gas := result.Transaction.Gas; gas != nil {
		tw.AppendRow(table.Row{"Gas", fmt.Sprintf("%d @ %.0f gwei (%.6f ETH)", gas.GasUsed, gas.GasPriceGwei, gas.TotalCostEth)})
	}
	if cred.Proof != "" {
		tw.AppendRow(table.Row{"Proof", cred.Proof})
	}
	tw.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
