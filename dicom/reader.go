package dicom

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// Reader errors.
var (
	// ErrNotDICOM is returned when the DICM prefix is missing.
	ErrNotDICOM = errors.New("dicom: not a DICOM Part-10 file")

	// ErrUnsupportedSyntax is returned for transfer syntaxes the reader
	// cannot walk (deflated or unknown).
	ErrUnsupportedSyntax = errors.New("dicom: unsupported transfer syntax")

	// ErrCorruptElement is returned when an element header or length is
	// inconsistent with the file.
	ErrCorruptElement = errors.New("dicom: corrupt element")
)

const undefinedLength = 0xFFFFFFFF

// ReadFile parses the attributes of a Part-10 file. PixelData is recorded
// as a Reference into path; its bytes are not read.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Read(f, path, st.Size())
}

// Read parses a Part-10 stream of the given size. path is recorded in the
// references of bulk values.
func Read(r io.Reader, path string, size int64) (*Dataset, error) {
	p := &parser{
		br:      bufio.NewReaderSize(r, 64*1024),
		size:    size,
		path:    path,
		order:   binary.LittleEndian,
		charset: DefaultCharacterSet,
		ds:      NewDataset(),
		scratch: bytebufferpool.Get(),
	}
	defer bytebufferpool.Put(p.scratch)

	if err := p.readPreamble(); err != nil {
		return nil, err
	}
	if err := p.readMeta(); err != nil {
		return nil, err
	}
	if err := p.readBody(); err != nil {
		return nil, err
	}
	return p.ds, nil
}

type parser struct {
	br       *bufio.Reader
	pos      int64
	size     int64
	path     string
	order    binary.ByteOrder
	implicit bool
	syntax   string
	charset  *CharacterSet
	ds       *Dataset
	scratch  *bytebufferpool.ByteBuffer
}

type header struct {
	tag    Tag
	vr     string
	length uint32
	start  int64 // offset of the value
}

func (p *parser) readPreamble() error {
	var pre [132]byte
	if _, err := io.ReadFull(p.br, pre[:]); err != nil {
		return fmt.Errorf("%w: %w", ErrNotDICOM, err)
	}
	p.pos = int64(len(pre))
	if string(pre[128:]) != "DICM" {
		return ErrNotDICOM
	}
	return nil
}

func (p *parser) readMeta() error {
	for {
		group, err := p.peekGroup()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if group != 0x0002 {
			break
		}
		h, err := p.readHeader()
		if err != nil {
			return err
		}
		if err := p.readValue(h); err != nil {
			return err
		}
	}

	ts, err := p.ds.String(TagTransferSyntaxUID)
	if err != nil {
		ts = ExplicitVRLittleEndian
	}
	ts = strings.TrimRight(ts, "\x00 ")
	if !KnownTransferSyntax(ts) || IsDeflated(ts) {
		return fmt.Errorf("%w: %q", ErrUnsupportedSyntax, ts)
	}
	p.syntax = ts
	p.implicit = IsImplicitVR(ts)
	if IsBigEndian(ts) {
		p.order = binary.BigEndian
	}
	return nil
}

func (p *parser) readBody() error {
	for p.pos < p.size {
		h, err := p.readHeader()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.readValue(h); err != nil {
			return err
		}
	}
	return nil
}

// peekGroup returns the group of the next tag without consuming it.
// The file meta group is always little endian.
func (p *parser) peekGroup() (uint16, error) {
	b, err := p.br.Peek(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (p *parser) readHeader() (header, error) {
	order := p.order
	implicit := p.implicit
	if group, err := p.peekGroup(); err == nil && group == 0x0002 {
		order = binary.LittleEndian
		implicit = false
	}

	var b [8]byte
	if err := p.readFull(b[:4]); err != nil {
		return header{}, err
	}
	tag := NewTag(order.Uint16(b[0:2]), order.Uint16(b[2:4]))

	// Item and delimiter tags never carry a VR.
	if tag.Group() == 0xFFFE {
		if err := p.readFull(b[:4]); err != nil {
			return header{}, err
		}
		return header{tag: tag, length: order.Uint32(b[:4]), start: p.pos}, nil
	}

	if implicit {
		if err := p.readFull(b[:4]); err != nil {
			return header{}, err
		}
		return header{tag: tag, vr: implicitVR(tag), length: order.Uint32(b[:4]), start: p.pos}, nil
	}

	if err := p.readFull(b[:4]); err != nil {
		return header{}, err
	}
	vr := string(b[:2])
	if hasLongLength(vr) {
		if err := p.readFull(b[:4]); err != nil {
			return header{}, err
		}
		return header{tag: tag, vr: vr, length: order.Uint32(b[:4]), start: p.pos}, nil
	}
	return header{tag: tag, vr: vr, length: uint32(order.Uint16(b[2:4])), start: p.pos}, nil
}

func (p *parser) readValue(h header) error {
	if h.tag == TagPixelData {
		return p.recordPixelData(h)
	}
	if h.length == undefinedLength {
		return p.skipUndefined()
	}
	if int64(h.length) > p.size-p.pos {
		return fmt.Errorf("%w: %s length %d exceeds remaining %d bytes",
			ErrCorruptElement, h.tag, h.length, p.size-p.pos)
	}
	if h.vr == "SQ" {
		return p.skip(int64(h.length))
	}

	p.scratch.Reset()
	if _, err := io.CopyN(p.scratch, p.br, int64(h.length)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptElement, h.tag, err)
	}
	p.pos += int64(h.length)

	value, err := p.decode(h, p.scratch.B)
	if err != nil {
		return err
	}
	p.ds.Set(h.tag, value)

	if h.tag == TagSpecificCharacterSet {
		if s, ok := value.(string); ok {
			if cs, ok := LookupCharacterSet(s); ok {
				p.charset = cs
			}
		}
	}
	return nil
}

// recordPixelData stores a reference to the pixel data value. Encapsulated
// streams are walked to the sequence delimiter; the reference spans every
// item but not the delimiter.
func (p *parser) recordPixelData(h header) error {
	ref := Reference{Path: p.path, Offset: h.start, TransferSyntax: p.syntax}
	if h.length != undefinedLength {
		if int64(h.length) > p.size-p.pos {
			return fmt.Errorf("%w: pixel data length %d exceeds remaining %d bytes",
				ErrCorruptElement, h.length, p.size-p.pos)
		}
		ref.Length = int64(h.length)
		p.ds.SetReference(TagPixelData, ref)
		return p.skip(int64(h.length))
	}

	for {
		item, err := p.readHeader()
		if err != nil {
			return fmt.Errorf("%w: pixel data fragments: %w", ErrCorruptElement, err)
		}
		switch item.tag {
		case TagSequenceDelimitationItem:
			ref.Length = item.start - 8 - ref.Offset
			p.ds.SetReference(TagPixelData, ref)
			return nil
		case TagItem:
			if err := p.skip(int64(item.length)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unexpected %s in pixel data fragments", ErrCorruptElement, item.tag)
		}
	}
}

// skipUndefined walks an undefined-length value (sequence or UN) up to and
// including its sequence delimiter.
func (p *parser) skipUndefined() error {
	for {
		item, err := p.readHeader()
		if err != nil {
			return fmt.Errorf("%w: sequence: %w", ErrCorruptElement, err)
		}
		switch item.tag {
		case TagSequenceDelimitationItem:
			return nil
		case TagItem:
			if item.length != undefinedLength {
				if err := p.skip(int64(item.length)); err != nil {
					return err
				}
				continue
			}
			if err := p.skipItem(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unexpected %s in sequence", ErrCorruptElement, item.tag)
		}
	}
}

// skipItem walks the elements of an undefined-length item.
func (p *parser) skipItem() error {
	for {
		h, err := p.readHeader()
		if err != nil {
			return fmt.Errorf("%w: item: %w", ErrCorruptElement, err)
		}
		if h.tag == TagItemDelimitationItem {
			return nil
		}
		if h.length == undefinedLength {
			if err := p.skipUndefined(); err != nil {
				return err
			}
			continue
		}
		if err := p.skip(int64(h.length)); err != nil {
			return err
		}
	}
}

func (p *parser) decode(h header, raw []byte) (any, error) {
	switch h.vr {
	case "US":
		return unpackInts(raw, 2, func(b []byte) int { return int(p.order.Uint16(b)) }), nil
	case "SS":
		return unpackInts(raw, 2, func(b []byte) int { return int(int16(p.order.Uint16(b))) }), nil
	case "UL":
		return unpackInts(raw, 4, func(b []byte) int { return int(p.order.Uint32(b)) }), nil
	case "SL":
		return unpackInts(raw, 4, func(b []byte) int { return int(int32(p.order.Uint32(b))) }), nil
	case "AE", "AS", "CS", "DA", "DS", "DT", "IS", "TM", "UI", "UR":
		return splitStrings(string(raw)), nil
	case "LO", "PN", "SH", "UC":
		s, err := p.charset.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptElement, h.tag, err)
		}
		return splitStrings(s), nil
	case "LT", "ST", "UT":
		s, err := p.charset.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptElement, h.tag, err)
		}
		return strings.TrimRight(s, "\x00 "), nil
	}
	return append([]byte(nil), raw...), nil
}

func unpackInts(raw []byte, width int, read func([]byte) int) any {
	n := len(raw) / width
	if n == 1 {
		return read(raw)
	}
	out := make([]int, n)
	for i := range out {
		out[i] = read(raw[i*width:])
	}
	return out
}

// splitStrings trims value padding and splits multi-valued strings.
func splitStrings(s string) any {
	s = strings.TrimRight(s, "\x00 ")
	if !strings.Contains(s, `\`) {
		return strings.TrimSpace(s)
	}
	parts := strings.Split(s, `\`)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (p *parser) readFull(b []byte) error {
	n, err := io.ReadFull(p.br, b)
	p.pos += int64(n)
	if err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: truncated at offset %d", ErrCorruptElement, p.pos)
	}
	return err
}

func (p *parser) skip(n int64) error {
	if n > p.size-p.pos {
		return fmt.Errorf("%w: skip of %d bytes past end of file", ErrCorruptElement, n)
	}
	d, err := p.br.Discard(int(n))
	p.pos += int64(d)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptElement, err)
	}
	return nil
}

func hasLongLength(vr string) bool {
	switch vr {
	case "OB", "OD", "OF", "OL", "OV", "OW", "SQ", "SV", "UC", "UN", "UR", "UT", "UV":
		return true
	}
	return false
}

// implicitVR returns the VR of the attributes this package understands.
// Everything else is kept as raw bytes.
func implicitVR(tag Tag) string {
	switch tag {
	case TagSamplesPerPixel, TagPlanarConfiguration, TagRows, TagColumns,
		TagBitsAllocated, TagBitsStored, TagHighBit, TagPixelRepresentation:
		return "US"
	case TagPhotometricInterpretation, TagSpecificCharacterSet:
		return "CS"
	case TagTransferSyntaxUID, TagSOPInstanceUID:
		return "UI"
	case TagNumberOfFrames:
		return "IS"
	case TagFileMetaGroupLength:
		return "UL"
	case TagPixelData:
		return "OW"
	}
	return "UN"
}
