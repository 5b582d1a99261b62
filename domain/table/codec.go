package table

import (
	"bytes"
	"encoding/gob"
)

// GobEncode serializes the table as its ordered column list
func (t Table) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t.cols); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode rebuilds the table, restoring the name index
func (t *Table) GobDecode(data []byte) error {
	var cols []Column
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&cols); err != nil {
		return err
	}
	rebuilt, err := New(cols...)
	if err != nil {
		return err
	}
	*t = rebuilt
	return nil
}
