package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/pcmm-backend/internal/services"
)

var (
	tagDescription string
	tagUser        string
	repairAge      string

	tagCmd = &cobra.Command{
		Use:   "tag",
		Short: "Manage tag snapshots",
	}

	tagCreateCmd = &cobra.Command{
		Use:   "create <name>",
		Short: "Snapshot the active evidence, assessments and planning under a new tag",
		Args:  cobra.ExactArgs(1),
		RunE:  runTagCreate,
	}

	tagDeleteCmd = &cobra.Command{
		Use:   "delete <tag-id>",
		Short: "Delete a tag and every row it owns",
		Args:  cobra.ExactArgs(1),
		RunE:  runTagDelete,
	}

	tagListCmd = &cobra.Command{
		Use:   "list",
		Short: "List tags, newest first",
		Args:  cobra.NoArgs,
		RunE:  runTagList,
	}

	tagRepairCmd = &cobra.Command{
		Use:   "repair",
		Short: "Roll back interrupted tag creations and finish interrupted deletions",
		Args:  cobra.NoArgs,
		RunE:  runTagRepair,
	}
)

func init() {
	tagCreateCmd.Flags().StringVarP(&tagDescription, "description", "d", "", "tag description")
	tagCreateCmd.Flags().StringVarP(&tagUser, "user", "u", os.Getenv("USER"), "user recorded as the tag creator")
	tagRepairCmd.Flags().StringVar(&repairAge, "older-than", "", "only settle runs idle for at least this long (e.g. 10m); defaults to tag.repair_older_than")
	tagCmd.AddCommand(tagCreateCmd, tagDeleteCmd, tagListCmd, tagRepairCmd)
}

func runTagCreate(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	tag, err := a.Services.Tag.CreateTag(cmd.Context(), services.CreateTagInput{
		Name:        args[0],
		User:        tagUser,
		Description: tagDescription,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), tag)
}

func runTagDelete(cmd *cobra.Command, args []string) error {
	tagID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("tag id: %w", err)
	}
	a, err := bootstrap(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Services.Tag.DeleteTag(cmd.Context(), tagID); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "deleted", tagID)
	return nil
}

func runTagList(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	tags, err := a.Services.Tag.ListTags(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), tags)
}

func runTagRepair(cmd *cobra.Command, _ []string) error {
	olderThan, err := parseAge(repairAge)
	if err != nil {
		return err
	}
	a, err := bootstrap(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if repairAge == "" {
		olderThan = a.Cfg.Tag.RepairOlderThan
	}
	res, err := a.Services.Tag.Repair(cmd.Context(), olderThan)
	if res != nil {
		if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
			return perr
		}
	}
	return err
}
