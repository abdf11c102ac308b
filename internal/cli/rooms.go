package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomsListCmd())
	cmd.AddCommand(newRoomsCreateCmd())
	cmd.AddCommand(newRoomsGetCmd())
	cmd.AddCommand(newRoomsSessionCmd())
	cmd.AddCommand(newRoomsDeleteCmd())

	return cmd
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.ListRooms(cmd.Context())
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomsCreateCmd() *cobra.Command {
	var name, language, wordSource string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room hosted by you",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.CreateRoom(cmd.Context(), CreateRoomRequest{
				Name:       name,
				Language:   language,
				WordSource: wordSource,
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Room name (required)")
	cmd.Flags().StringVar(&language, "language", "english", "Word language: english, serbian")
	cmd.Flags().StringVar(&wordSource, "word-source", "", "Word source: SERVER, PLAYERS")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newRoomsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Get room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.GetRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomsSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session <room-id>",
		Short: "Show the live game in a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <room-id>",
		Short: "Delete a room you host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.DeleteRoom(cmd.Context(), args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Deleted room %s", args[0]))
			return nil
		},
	}
}
