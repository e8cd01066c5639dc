package credstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const recordVersionV1 = 1

var errCorruptRecord = errors.New("corrupt credential record")

func encodeRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)

	for _, field := range []string{
		r.User.UserID,
		r.User.DisplayName,
		r.User.Email,
		r.User.Role,
		r.AccessToken,
		r.RefreshToken,
	} {
		if err := writeString(&buf, field); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, r.TokenExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.SavedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, errCorruptRecord
	}
	if version != recordVersionV1 {
		return nil, errCorruptRecord
	}

	r := &Record{}
	for _, field := range []*string{
		&r.User.UserID,
		&r.User.DisplayName,
		&r.User.Email,
		&r.User.Role,
		&r.AccessToken,
		&r.RefreshToken,
	} {
		value, err := readString(reader)
		if err != nil {
			return nil, errCorruptRecord
		}
		*field = value
	}

	if err := binary.Read(reader, binary.BigEndian, &r.TokenExpiresAt); err != nil {
		return nil, errCorruptRecord
	}
	if err := binary.Read(reader, binary.BigEndian, &r.SavedAt); err != nil {
		return nil, errCorruptRecord
	}

	return r, nil
}

// Tokens routinely exceed 255 bytes, so every field carries a uint16
// length prefix.
func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return errors.New("credential field too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
