package dicom

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Dataset errors.
var (
	// ErrAttributeNotFound is returned when a tag is absent from the dataset.
	ErrAttributeNotFound = errors.New("dicom: attribute not found")

	// ErrAttributeType is returned when a value cannot be read as the
	// requested type.
	ErrAttributeType = errors.New("dicom: attribute has unexpected type")
)

// Dataset is an in-memory attribute store.
//
// Values are held as int, string, []string or []byte. Bulk values such as
// PixelData are held as a Reference instead of bytes.
//
// Dataset is safe for concurrent use. After Close every lookup reports the
// attribute as absent.
type Dataset struct {
	mu     sync.RWMutex
	values map[Tag]any
	refs   map[Tag]Reference
	closed bool
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		values: make(map[Tag]any),
		refs:   make(map[Tag]Reference),
	}
}

// Set stores a value for tag, replacing any previous value.
func (d *Dataset) Set(tag Tag, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.values[tag] = value
}

// SetReference stores a bulk value reference for tag. The tag is reported
// present by Has.
func (d *Dataset) SetReference(tag Tag, ref Reference) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.refs[tag] = ref
}

// Delete removes tag and any reference stored for it.
func (d *Dataset) Delete(tag Tag) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.values, tag)
	delete(d.refs, tag)
}

// Has reports whether tag holds a value or a reference.
func (d *Dataset) Has(tag Tag) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.values[tag]; ok {
		return true
	}
	_, ok := d.refs[tag]
	return ok
}

// Value returns the raw stored value.
func (d *Dataset) Value(tag Tag) (any, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.values[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAttributeNotFound, tag)
	}
	return v, nil
}

// Int returns the first value of tag as an integer. Integer strings (IS)
// are parsed.
func (d *Dataset) Int(tag Tag) (int, error) {
	v, err := d.Value(tag)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case []int:
		if len(x) > 0 {
			return x[0], nil
		}
	case string:
		return parseIntString(tag, x)
	case []string:
		if len(x) > 0 {
			return parseIntString(tag, x[0])
		}
	}
	return 0, fmt.Errorf("%w: %s is %T", ErrAttributeType, tag, v)
}

func parseIntString(tag Tag, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrAttributeType, tag, err)
	}
	return n, nil
}

// String returns tag as a string. Multiple values are joined with a
// backslash, as they are encoded on the wire.
func (d *Dataset) String(tag Tag) (string, error) {
	v, err := d.Value(tag)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []string:
		return strings.Join(x, `\`), nil
	case int:
		return strconv.Itoa(x), nil
	}
	return "", fmt.Errorf("%w: %s is %T", ErrAttributeType, tag, v)
}

// Reference returns the bulk value reference stored for tag.
func (d *Dataset) Reference(tag Tag) (Reference, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ref, ok := d.refs[tag]
	return ref, ok
}

// Tags returns every tag present in the dataset in ascending order.
func (d *Dataset) Tags() []Tag {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tags := make([]Tag, 0, len(d.values)+len(d.refs))
	for t := range d.values {
		tags = append(tags, t)
	}
	for t := range d.refs {
		if _, dup := d.values[t]; !dup {
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	return tags
}

// Close drops all values. It is safe to call more than once.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	clear(d.values)
	clear(d.refs)
	return nil
}
