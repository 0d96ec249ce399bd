package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const (
	recordFormatVersionCurrent = 1

	flagActive           = 1 << 0
	flagTwoFactorEnabled = 1 << 1
)

var (
	errRecordTruncated   = errors.New("session record truncated")
	errRecordVersion     = errors.New("unsupported session record version")
	errRecordFieldLength = errors.New("session record field too long")
)

// record is the persisted form of a session: the identity snapshot plus the
// token pair and the tier it was written under.
type record struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	Tier         Tier
	IssuedAt     int64
}

func newRecord(id Identity, access, refresh string, tier Tier) *record {
	return &record{
		Identity:     id,
		AccessToken:  access,
		RefreshToken: refresh,
		Tier:         tier,
		IssuedAt:     time.Now().Unix(),
	}
}

// Encode serializes the record with a leading schema-version byte so older
// persisted records can be rejected cleanly after upgrades.
func (r *record) Encode() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)
	buf.WriteByte(byte(r.Tier))

	var flags byte
	if r.Identity.Active {
		flags |= flagActive
	}
	if r.Identity.TwoFactorEnabled {
		flags |= flagTwoFactorEnabled
	}
	buf.WriteByte(flags)

	for _, field := range []string{r.Identity.ID, r.Identity.Email, r.Identity.FullName, r.Identity.Role} {
		if len(field) > 255 {
			return nil, errRecordFieldLength
		}
		buf.WriteByte(byte(len(field)))
		buf.WriteString(field)
	}

	for _, token := range []string{r.AccessToken, r.RefreshToken} {
		if len(token) > 0xFFFF {
			return nil, errRecordFieldLength
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(token))); err != nil {
			return nil, err
		}
		buf.WriteString(token)
	}

	if err := binary.Write(&buf, binary.BigEndian, r.IssuedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decodeRecord parses an encoded record, rejecting unknown versions and
// truncated input.
func decodeRecord(data []byte) (*record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, errRecordTruncated
	}
	if version != recordFormatVersionCurrent {
		return nil, errRecordVersion
	}

	tierByte, err := reader.ReadByte()
	if err != nil {
		return nil, errRecordTruncated
	}
	if tierByte > byte(TierDurable) {
		return nil, errRecordTruncated
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, errRecordTruncated
	}

	shortFields := make([]string, 4)
	for i := range shortFields {
		value, err := readShortString(reader)
		if err != nil {
			return nil, err
		}
		shortFields[i] = value
	}

	tokens := make([]string, 2)
	for i := range tokens {
		value, err := readLongString(reader)
		if err != nil {
			return nil, err
		}
		tokens[i] = value
	}

	var issuedAt int64
	if err := binary.Read(reader, binary.BigEndian, &issuedAt); err != nil {
		return nil, errRecordTruncated
	}
	if reader.Len() != 0 {
		return nil, errRecordTruncated
	}

	return &record{
		Identity: Identity{
			ID:               shortFields[0],
			Email:            shortFields[1],
			FullName:         shortFields[2],
			Role:             shortFields[3],
			Active:           flags&flagActive != 0,
			TwoFactorEnabled: flags&flagTwoFactorEnabled != 0,
		},
		AccessToken:  tokens[0],
		RefreshToken: tokens[1],
		Tier:         Tier(tierByte),
		IssuedAt:     issuedAt,
	}, nil
}

func readShortString(reader *bytes.Reader) (string, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return "", errRecordTruncated
	}
	return readStringBody(reader, int(length))
}

func readLongString(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", errRecordTruncated
	}
	return readStringBody(reader, int(length))
}

func readStringBody(reader *bytes.Reader, length int) (string, error) {
	if length == 0 {
		return "", nil
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", errRecordTruncated
	}
	return string(raw), nil
}
