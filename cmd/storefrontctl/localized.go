package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// entityRef names a localizable entity by id and key group without loading it.
type entityRef struct {
	id    uuid.UUID
	group string
}

func (e entityRef) GetID() uuid.UUID       { return e.id }
func (e entityRef) LocaleKeyGroup() string { return e.group }

func newLocalizedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "localized",
		Short: "Read and write localized values",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print a localized value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLocalizedGet(cmd, a)
		},
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Store a localized value, a blank value deletes it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLocalizedSet(cmd, a)
		},
	}
	set.Flags().String("value", "", "localized value")

	for _, c := range []*cobra.Command{get, set} {
		c.Flags().String("language", "", "language id")
		c.Flags().String("entity", "", "entity id")
		c.Flags().String("group", "", "locale key group, e.g. Country")
		c.Flags().String("key", "", "locale key, e.g. Name")
		_ = c.MarkFlagRequired("language")
		_ = c.MarkFlagRequired("entity")
		_ = c.MarkFlagRequired("group")
		_ = c.MarkFlagRequired("key")
	}

	cmd.AddCommand(get, set)
	return cmd
}

type localizedArgs struct {
	languageID uuid.UUID
	entity     entityRef
	key        string
}

func parseLocalizedArgs(cmd *cobra.Command) (localizedArgs, error) {
	var args localizedArgs

	languageID, err := uuidFlag(cmd, "language")
	if err != nil {
		return args, err
	}
	entityID, err := uuidFlag(cmd, "entity")
	if err != nil {
		return args, err
	}
	group, _ := cmd.Flags().GetString("group")
	key, _ := cmd.Flags().GetString("key")

	args.languageID = languageID
	args.entity = entityRef{id: entityID, group: group}
	args.key = key
	return args, nil
}

func runLocalizedGet(cmd *cobra.Command, a *app) error {
	args, err := parseLocalizedArgs(cmd)
	if err != nil {
		return err
	}

	container, err := a.container(cmd.Context())
	if err != nil {
		return err
	}
	defer container.Close()

	value, err := container.LocalizedEntities().GetLocalizedValue(cmd.Context(),
		args.languageID, args.entity.id, args.entity.group, args.key)
	if err != nil {
		return fmt.Errorf("failed to read localized value: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runLocalizedSet(cmd *cobra.Command, a *app) error {
	args, err := parseLocalizedArgs(cmd)
	if err != nil {
		return err
	}
	value, _ := cmd.Flags().GetString("value")

	container, err := a.container(cmd.Context())
	if err != nil {
		return err
	}
	defer container.Close()

	if err := container.LocalizedEntities().SaveLocalizedValue(cmd.Context(), args.entity, args.key, value, args.languageID); err != nil {
		return fmt.Errorf("failed to save localized value: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Saved")
	return nil
}
