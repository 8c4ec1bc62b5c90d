package pentabarf

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// cursor is a forward-only view over an xml.Decoder that only surfaces
// element boundaries. Character data is read on demand through text.
type cursor struct {
	dec *xml.Decoder
	tok xml.Token // xml.StartElement, xml.EndElement or nil
	eof bool
}

func newCursor(r io.Reader) *cursor {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return &cursor{dec: dec}
}

// next advances to the next start or end tag. At the end of the document it
// sets eof and returns nil.
func (c *cursor) next() error {
	if c.eof {
		return nil
	}
	for {
		tok, err := c.dec.Token()
		if errors.Is(err, io.EOF) {
			c.tok = nil
			c.eof = true
			return nil
		}
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement, xml.EndElement:
			c.tok = xml.CopyToken(tok)
			return nil
		}
	}
}

func (c *cursor) isStartTag() bool {
	_, ok := c.tok.(xml.StartElement)
	return ok
}

func (c *cursor) isStart(name string) bool {
	se, ok := c.tok.(xml.StartElement)
	return ok && se.Name.Local == name
}

func (c *cursor) isEnd(name string) bool {
	ee, ok := c.tok.(xml.EndElement)
	return ok && ee.Name.Local == name
}

// name returns the local name of the current tag.
func (c *cursor) name() string {
	switch t := c.tok.(type) {
	case xml.StartElement:
		return t.Name.Local
	case xml.EndElement:
		return t.Name.Local
	}
	return ""
}

// attr looks up an unqualified attribute on the current start tag.
func (c *cursor) attr(name string) (string, bool) {
	se, ok := c.tok.(xml.StartElement)
	if !ok {
		return "", false
	}
	for _, a := range se.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// text returns the character content of the current start tag and leaves
// the cursor on its end tag. Elements nested in the text are an error.
func (c *cursor) text() (string, error) {
	se, ok := c.tok.(xml.StartElement)
	if !ok {
		return "", errors.New("text: not positioned on a start tag")
	}
	var sb strings.Builder
	for {
		tok, err := c.dec.Token()
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			c.tok = xml.CopyToken(t)
			return sb.String(), nil
		case xml.StartElement:
			return "", errors.New("text: unexpected <" + t.Name.Local + "> inside <" + se.Name.Local + ">")
		}
	}
}

// skip discards the subtree of the current start tag and leaves the cursor
// on its end tag.
func (c *cursor) skip() error {
	se, ok := c.tok.(xml.StartElement)
	if !ok {
		return nil
	}
	if err := c.dec.Skip(); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	c.tok = se.End()
	return nil
}

func (c *cursor) pos() (line, column int) {
	return c.dec.InputPos()
}
