package codec

import (
	"encoding/xml"
	"io"

	"github.com/seisflow/seisflow/pkg/errors"
)

// StationInventory holds station response metadata for one
// (network, station). The raw document is kept verbatim so a cached
// inventory round-trips byte-for-byte; the parsed fields cover what the
// grouping engine needs to key and inspect it.
type StationInventory struct {
	Network  string
	Station  string
	Channels []InventoryChannel

	// Raw is the original document as fetched.
	Raw []byte
}

// InventoryChannel describes one channel entry in the inventory.
type InventoryChannel struct {
	Code         string
	LocationCode string
	SampleRate   float64
}

// ID returns "NET.STA".
func (inv *StationInventory) ID() string {
	return inv.Network + "." + inv.Station
}

// StationXMLCodec is the default InventoryCodec over FDSN StationXML
// documents. Only the network/station/channel skeleton is interpreted;
// the full response stages pass through untouched in Raw.
type StationXMLCodec struct{}

// NewStationXMLCodec returns the default inventory codec.
func NewStationXMLCodec() *StationXMLCodec {
	return &StationXMLCodec{}
}

type stationXMLDoc struct {
	XMLName  xml.Name            `xml:"FDSNStationXML"`
	Networks []stationXMLNetwork `xml:"Network"`
}

type stationXMLNetwork struct {
	Code     string              `xml:"code,attr"`
	Stations []stationXMLStation `xml:"Station"`
}

type stationXMLStation struct {
	Code     string              `xml:"code,attr"`
	Channels []stationXMLChannel `xml:"Channel"`
}

type stationXMLChannel struct {
	Code         string  `xml:"code,attr"`
	LocationCode string  `xml:"locationCode,attr"`
	SampleRate   float64 `xml:"SampleRate"`
}

// Decode parses a StationXML document.
func (c *StationXMLCodec) Decode(r io.Reader) (*StationInventory, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDecodeFailed, "reading inventory document")
	}

	var doc stationXMLDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeDecodeFailed, "parsing StationXML")
	}
	if len(doc.Networks) == 0 || len(doc.Networks[0].Stations) == 0 {
		return nil, errors.New(errors.CodeDecodeFailed, "StationXML missing network or station element")
	}

	net := doc.Networks[0]
	sta := net.Stations[0]
	inv := &StationInventory{
		Network: net.Code,
		Station: sta.Code,
		Raw:     raw,
	}
	for _, ch := range sta.Channels {
		inv.Channels = append(inv.Channels, InventoryChannel{
			Code:         ch.Code,
			LocationCode: ch.LocationCode,
			SampleRate:   ch.SampleRate,
		})
	}
	return inv, nil
}

// Encode writes the inventory document. The raw fetched bytes are
// preferred so cached files stay identical to the remote response.
func (c *StationXMLCodec) Encode(w io.Writer, inv *StationInventory) error {
	if len(inv.Raw) > 0 {
		if _, err := w.Write(inv.Raw); err != nil {
			return errors.Wrap(err, errors.CodeEncodeFailed, "writing inventory document")
		}
		return nil
	}

	doc := stationXMLDoc{
		Networks: []stationXMLNetwork{{
			Code: inv.Network,
			Stations: []stationXMLStation{{
				Code: inv.Station,
			}},
		}},
	}
	for _, ch := range inv.Channels {
		doc.Networks[0].Stations[0].Channels = append(
			doc.Networks[0].Stations[0].Channels,
			stationXMLChannel{Code: ch.Code, LocationCode: ch.LocationCode, SampleRate: ch.SampleRate},
		)
	}

	enc := xml.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, errors.CodeEncodeFailed, "encoding StationXML")
	}
	return nil
}

// Verify interface compliance
var _ InventoryCodec = (*StationXMLCodec)(nil)
