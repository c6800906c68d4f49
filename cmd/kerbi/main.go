// Command kerbi renders the mixers registered in mixer.Default, or the
// units/ directory of a project when none are registered.
package main

import (
	"github.com/cameronsjo/kerbi/internal/cmd"
	"github.com/cameronsjo/kerbi/internal/mixer"
)

func main() {
	cmd.Execute(mixer.Default())
}
