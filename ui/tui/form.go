package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"patchlab/internal/config"
)

// Text field order in the setup form.
const (
	fieldDataRoot = iota
	fieldPatchRoot
	fieldPatchSize
	fieldStride
	fieldMinRatio
	fieldMaxPatches
	fieldFormat
	fieldSeed
	fieldExtensions
	fieldImageFolder
	fieldMaskFolder
	numTextFields
)

// Toggle rows follow the text fields in the focus cycle.
const (
	toggleBorders = numTextFields + iota
	toggleApplyRatio
	toggleDryRun
	numFormRows
)

var fieldLabels = [numTextFields]string{
	"Data root",
	"Patch root",
	"Patch size",
	"Stride",
	"Min mask ratio",
	"Max patches/image",
	"Save format",
	"Seed",
	"Extensions",
	"Image folder",
	"Mask folder",
}

// form is the editable configuration of the setup view.
type form struct {
	inputs     [numTextFields]textinput.Model
	borders    bool
	applyRatio bool
	dryRun     bool
	focus      int
}

func newForm(cfg config.Config) form {
	var f form
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Width = 40
		f.inputs[i] = ti
	}
	f.inputs[fieldDataRoot].Placeholder = "/path/to/dataset"
	f.inputs[fieldPatchRoot].Placeholder = "/path/to/patches"
	f.inputs[fieldFormat].Placeholder = strings.Join(config.SaveFormats, "|")
	f.SetConfig(cfg)
	f.inputs[fieldDataRoot].Focus()
	return f
}

// SetConfig fills every row from cfg.
func (f *form) SetConfig(cfg config.Config) {
	f.inputs[fieldDataRoot].SetValue(cfg.DataRoot)
	f.inputs[fieldPatchRoot].SetValue(cfg.PatchRoot)
	f.inputs[fieldPatchSize].SetValue(strconv.Itoa(cfg.PatchSize))
	f.inputs[fieldStride].SetValue(strconv.Itoa(cfg.Stride))
	f.inputs[fieldMinRatio].SetValue(strconv.FormatFloat(cfg.MinMaskRatio, 'f', -1, 64))
	f.inputs[fieldMaxPatches].SetValue(strconv.Itoa(cfg.MaxPatchesPerImage))
	f.inputs[fieldFormat].SetValue(cfg.SaveFormat)
	f.inputs[fieldSeed].SetValue(strconv.FormatInt(cfg.Seed, 10))
	f.inputs[fieldExtensions].SetValue(strings.Join(cfg.Extensions, ","))
	f.inputs[fieldImageFolder].SetValue(cfg.ImageFolderName)
	f.inputs[fieldMaskFolder].SetValue(cfg.MaskFolderName)
	f.borders = cfg.IncludeBorders
	f.applyRatio = cfg.ApplyMinMaskRatio
	f.dryRun = cfg.DryRun
}

// Config assembles a configuration from the current rows. Unparsable
// numeric fields produce an error naming the field; range and path rules
// are left to config.Validate.
func (f *form) Config() (config.Config, error) {
	cfg := config.Default()
	cfg.DataRoot = strings.TrimSpace(f.inputs[fieldDataRoot].Value())
	cfg.PatchRoot = strings.TrimSpace(f.inputs[fieldPatchRoot].Value())

	var err error
	if cfg.PatchSize, err = strconv.Atoi(strings.TrimSpace(f.inputs[fieldPatchSize].Value())); err != nil {
		return cfg, fmt.Errorf("patch size must be a number")
	}
	if cfg.Stride, err = strconv.Atoi(strings.TrimSpace(f.inputs[fieldStride].Value())); err != nil {
		return cfg, fmt.Errorf("stride must be a number")
	}
	if cfg.MinMaskRatio, err = strconv.ParseFloat(strings.TrimSpace(f.inputs[fieldMinRatio].Value()), 64); err != nil {
		return cfg, fmt.Errorf("min mask ratio must be a number")
	}
	if cfg.MaxPatchesPerImage, err = strconv.Atoi(strings.TrimSpace(f.inputs[fieldMaxPatches].Value())); err != nil {
		return cfg, fmt.Errorf("max patches must be a number")
	}
	if cfg.Seed, err = strconv.ParseInt(strings.TrimSpace(f.inputs[fieldSeed].Value()), 10, 64); err != nil {
		return cfg, fmt.Errorf("seed must be a number")
	}

	cfg.SaveFormat = strings.TrimSpace(f.inputs[fieldFormat].Value())
	cfg.Extensions = nil
	for _, part := range strings.Split(f.inputs[fieldExtensions].Value(), ",") {
		if part = strings.TrimSpace(part); part != "" {
			cfg.Extensions = append(cfg.Extensions, part)
		}
	}
	cfg.ImageFolderName = strings.TrimSpace(f.inputs[fieldImageFolder].Value())
	cfg.MaskFolderName = strings.TrimSpace(f.inputs[fieldMaskFolder].Value())
	cfg.IncludeBorders = f.borders
	cfg.ApplyMinMaskRatio = f.applyRatio
	cfg.DryRun = f.dryRun
	return cfg, nil
}

// Update routes msg to the form: navigation keys move the focus, space
// flips the focused toggle, everything else feeds the focused text field.
func (f form) Update(msg tea.Msg) (form, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down", "enter":
			f.setFocus((f.focus + 1) % numFormRows)
			return f, nil
		case "shift+tab", "up":
			f.setFocus((f.focus + numFormRows - 1) % numFormRows)
			return f, nil
		case " ":
			switch f.focus {
			case toggleBorders:
				f.borders = !f.borders
				return f, nil
			case toggleApplyRatio:
				f.applyRatio = !f.applyRatio
				return f, nil
			case toggleDryRun:
				f.dryRun = !f.dryRun
				return f, nil
			}
		}
	}

	if f.focus < numTextFields {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return f, cmd
	}
	return f, nil
}

func (f *form) setFocus(focus int) {
	if f.focus < numTextFields {
		f.inputs[f.focus].Blur()
	}
	f.focus = focus
	if f.focus < numTextFields {
		f.inputs[f.focus].Focus()
	}
}

// View renders the form rows.
func (f form) View() string {
	var b strings.Builder
	for i := 0; i < numTextFields; i++ {
		label := labelStyle
		if f.focus == i {
			label = focusedLabelStyle
		}
		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}

	toggles := []struct {
		row   int
		label string
		on    bool
	}{
		{toggleBorders, "Include borders", f.borders},
		{toggleApplyRatio, "Apply min mask ratio", f.applyRatio},
		{toggleDryRun, "Dry run", f.dryRun},
	}
	for _, t := range toggles {
		label := labelStyle
		if f.focus == t.row {
			label = focusedLabelStyle
		}
		box := toggleOffStyle.Render("[ ]")
		if t.on {
			box = toggleOnStyle.Render("[x]")
		}
		b.WriteString(label.Render(t.label))
		b.WriteString(box)
		b.WriteString("\n")
	}
	return b.String()
}
