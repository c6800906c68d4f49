package mixer

// DirMixer emits every unit in a directory. It is what a project without
// registered mixers gets.
type DirMixer struct {
	Path      string
	Blacklist []string
}

// Mix implements Mixer.
func (d DirMixer) Mix(c *Context) error {
	frags, err := c.LoadDirectory(d.Path, Blacklist(d.Blacklist...))
	if err != nil {
		return err
	}
	c.Emit(frags)
	return nil
}
