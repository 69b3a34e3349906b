package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
)

var (
	tagFlag string

	progressCmd = &cobra.Command{
		Use:   "progress <model-id>",
		Short: "Print the progress report of a model",
		Args:  cobra.ExactArgs(1),
		RunE:  runProgress,
	}

	aggregateCmd = &cobra.Command{
		Use:   "aggregate <model-id>",
		Short: "Print the aggregated maturity of a model",
		Args:  cobra.ExactArgs(1),
		RunE:  runAggregate,
	}
)

func init() {
	for _, c := range []*cobra.Command{progressCmd, aggregateCmd} {
		c.Flags().StringVar(&tagFlag, "tag", "", "read a tag snapshot instead of the active data")
	}
}

func parseModelAndTag(arg string) (uuid.UUID, types.TagFilter, error) {
	modelID, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("model id: %w", err)
	}
	if tagFlag == "" {
		return modelID, nil, nil
	}
	tagID, err := uuid.Parse(tagFlag)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("tag id: %w", err)
	}
	return modelID, &tagID, nil
}

func runProgress(cmd *cobra.Command, args []string) error {
	modelID, tag, err := parseModelAndTag(args[0])
	if err != nil {
		return err
	}
	a, err := bootstrap(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	spec, err := a.Services.PCMM.LoadSpecification(cmd.Context(), modelID)
	if err != nil {
		return err
	}
	report, err := a.Services.Progress.Report(cmd.Context(), spec, tag)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	modelID, tag, err := parseModelAndTag(args[0])
	if err != nil {
		return err
	}
	a, err := bootstrap(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	spec, err := a.Services.PCMM.LoadSpecification(cmd.Context(), modelID)
	if err != nil {
		return err
	}
	report, err := a.Services.Aggregation.Aggregate(cmd.Context(), spec, tag)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}
