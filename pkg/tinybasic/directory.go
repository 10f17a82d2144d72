package tinybasic

// Directory keeps up to MaxPrograms saved programs in insertion order.
// Entries are never removed; duplicate names are allowed and Load returns
// the first match.
type Directory struct {
	entries [MaxPrograms]Program
	count   int
}

// Save stores a copy of p under name.
func (d *Directory) Save(name string, p Program) error {
	if d.count >= MaxPrograms {
		return ErrStorageFull
	}
	p.name = truncate(name, MaxNameLen)
	d.entries[d.count] = p
	d.count++
	return nil
}

// Load returns a copy of the first program saved under name.
func (d *Directory) Load(name string) (Program, error) {
	name = truncate(name, MaxNameLen)
	for i := 0; i < d.count; i++ {
		if d.entries[i].name == name {
			return d.entries[i], nil
		}
	}
	return Program{}, ErrProgramNotFound
}

// Names lists the saved program names in insertion order.
func (d *Directory) Names() []string {
	names := make([]string, d.count)
	for i := 0; i < d.count; i++ {
		names[i] = d.entries[i].name
	}
	return names
}

// Len returns the number of saved programs.
func (d *Directory) Len() int {
	return d.count
}
