package core

import (
	"github.com/safval/DistributedDocumentStorage/codec"
)

// logHeaderSize is the number of log elements before the first transaction.
const logHeaderSize = 3

// WriteLog serializes a transaction log and its cursor.
func WriteLog(w codec.Writer, log []*Transaction, current Time) error {
	if err := w.BeginArray(len(log) + logHeaderSize); err != nil {
		return err
	}
	if err := w.WriteInt(SerializationFormatVersion); err != nil {
		return err
	}
	if err := w.WriteInt(int64(current)); err != nil {
		return err
	}
	if err := w.BeginMap(0); err != nil {
		return err
	}
	for _, t := range log {
		if err := t.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadLog reads a log written by WriteLog.
func ReadLog(r codec.Reader, types *Types) ([]*Transaction, Time, error) {
	n, err := r.ReadArray()
	if err != nil {
		return nil, 0, formatError(err)
	}
	if n < logHeaderSize {
		return nil, 0, errorf(ErrSerializationFormat, "log of %d elements", n)
	}
	// Older versions share the layout.
	if _, err := r.ReadInt(); err != nil {
		return nil, 0, formatError(err)
	}
	current, err := r.ReadInt()
	if err != nil {
		return nil, 0, formatError(err)
	}
	if err := codec.Skip(r); err != nil {
		return nil, 0, formatError(err)
	}
	log := make([]*Transaction, 0, n-logHeaderSize)
	for i := logHeaderSize; i < n; i++ {
		t, err := ReadTransaction(r, types)
		if err != nil {
			return nil, 0, err
		}
		log = append(log, t)
	}
	return log, Time(current), nil
}
