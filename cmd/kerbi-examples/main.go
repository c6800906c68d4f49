// Command kerbi-examples is kerbi with the bundled example mixers registered.
package main

import (
	"fmt"
	"os"

	"github.com/cameronsjo/kerbi/examples"
	"github.com/cameronsjo/kerbi/internal/cmd"
	"github.com/cameronsjo/kerbi/internal/mixer"
)

func main() {
	reg := mixer.NewRegistry()
	if err := examples.Register(reg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cmd.Execute(reg, cmd.WithUnits(examples.Units))
}
