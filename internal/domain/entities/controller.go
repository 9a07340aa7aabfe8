package entities

import (
	"github.com/spf13/cobra"
)

// ControllerBind carries the Cobra metadata of one subcommand.
type ControllerBind struct {
	Use   string
	Short string
	Long  string
}

// Controller is implemented by every CLI subcommand controller.
type Controller interface {
	GetBind() ControllerBind
	Execute(cmd *cobra.Command, args []string)
}
