package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Noah-wb/datachat/internal/config"
	"github.com/spf13/cobra"
)

var askModel string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "單次提問，輸出回答後結束",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askModel, "model", "", "使用指定模型")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, askModel)
	if err != nil {
		return err
	}
	defer rt.Close()

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("問題不可為空")
	}

	answer, err := rt.agent.Ask(context.Background(), question)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
