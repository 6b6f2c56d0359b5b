package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room inspection commands",
	}

	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomQRCmd())

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Get room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Get("/api/v1/rooms/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomQRCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "qr <room-id>",
		Short: "Download the room's join QR code as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			png, err := client.GetRaw("/api/v1/rooms/" + args[0] + "/qr")
			if err != nil {
				return err
			}

			if err := os.WriteFile(outFile, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("QR code written to " + outFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "join-qr.png", "Output file path")

	return cmd
}
