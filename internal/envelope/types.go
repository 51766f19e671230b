package envelope

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pfrederiksen/vols1365/internal/listing"
)

// FlexString decodes a JSON string, number, boolean or null into a string.
// The portal sends numeric fields (headcounts, hours, region codes) either
// way depending on the record.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(string(data))
	return nil
}

// String returns the trimmed value.
func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

// Int parses the value as an integer, returning 0 when it is not one.
func (f FlexString) Int() int {
	n, err := strconv.Atoi(f.String())
	if err != nil {
		return 0
	}
	return n
}

// Item is one listing entry as the API sends it.
type Item struct {
	ProgrmRegistNo FlexString `json:"progrmRegistNo" xml:"progrmRegistNo"`
	ProgrmSj       FlexString `json:"progrmSj" xml:"progrmSj"`
	ProgrmBgnde    FlexString `json:"progrmBgnde" xml:"progrmBgnde"`
	ProgrmEndde    FlexString `json:"progrmEndde" xml:"progrmEndde"`
	NoticeBgnde    FlexString `json:"noticeBgnde" xml:"noticeBgnde"`
	NoticeEndde    FlexString `json:"noticeEndde" xml:"noticeEndde"`
	RcritNmpr      FlexString `json:"rcritNmpr" xml:"rcritNmpr"`
	MnnstNm        FlexString `json:"mnnstNm" xml:"mnnstNm"`
	NanmmbyNm      FlexString `json:"nanmmbyNm" xml:"nanmmbyNm"`
	ActPlace       FlexString `json:"actPlace" xml:"actPlace"`
	ActBeginTm     FlexString `json:"actBeginTm" xml:"actBeginTm"`
	ActEndTm       FlexString `json:"actEndTm" xml:"actEndTm"`
	ActBeginMnt    FlexString `json:"actBeginMnt" xml:"actBeginMnt"`
	ActEndMnt      FlexString `json:"actEndMnt" xml:"actEndMnt"`
	SidoCd         FlexString `json:"sidoCd" xml:"sidoCd"`
}

// Record converts the item to a snapshot record with every field trimmed.
// The applied count is left empty; only the detail page carries it.
func (it Item) Record() listing.Record {
	return listing.Record{
		ID:           it.ProgrmRegistNo.String(),
		Title:        it.ProgrmSj.String(),
		ProgramBegin: it.ProgrmBgnde.String(),
		ProgramEnd:   it.ProgrmEndde.String(),
		NoticeBegin:  it.NoticeBgnde.String(),
		NoticeEnd:    it.NoticeEndde.String(),
		Recruit:      it.RcritNmpr.String(),
		HostOrg:      it.MnnstNm.String(),
		OperatingOrg: it.NanmmbyNm.String(),
		Place:        it.ActPlace.String(),
		ActBeginHour: it.ActBeginTm.String(),
		ActEndHour:   it.ActEndTm.String(),
		ActBeginMin:  it.ActBeginMnt.String(),
		ActEndMin:    it.ActEndMnt.String(),
		SidoCode:     it.SidoCd.String(),
	}
}

// Items decodes the JSON "items" container, which the API sends as
// {"item": {...}}, {"item": [...]}, or "" when there are no results.
type Items []Item

// UnmarshalJSON implements json.Unmarshaler.
func (it *Items) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		// "" or null
		*it = nil
		return nil
	}

	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}

	raw := bytes.TrimSpace(wrapper.Item)
	switch {
	case len(raw) == 0:
		*it = nil
	case raw[0] == '[':
		var many []Item
		if err := json.Unmarshal(raw, &many); err != nil {
			return err
		}
		*it = many
	case raw[0] == '{':
		var one Item
		if err := json.Unmarshal(raw, &one); err != nil {
			return err
		}
		*it = Items{one}
	default:
		*it = nil
	}
	return nil
}

// Page is a decoded listing page.
type Page struct {
	TotalCount int
	PageNo     int
	NumOfRows  int
	Items      []Item
}

// Records converts every item on the page.
func (p *Page) Records() []listing.Record {
	out := make([]listing.Record, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, it.Record())
	}
	return out
}
