// Package omexml serializes a metadata document to an OME-style XML form
// and writes it next to the acquisition. Serialization is a pure function
// of the document, so repeated runs over the same inputs produce
// byte-identical output.
package omexml

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/holotome/htconv/internal/models"
)

// creator identifies the producing software in the document header.
const creator = "htconv 0.2"

type xmlOME struct {
	XMLName     xml.Name        `xml:"OME"`
	Creator     string          `xml:"Creator,attr"`
	Instrument  xmlInstrument   `xml:"Instrument"`
	Images      []xmlImage      `xml:"Image"`
	Annotations *xmlAnnotations `xml:"StructuredAnnotations,omitempty"`
}

type xmlInstrument struct {
	ID           string           `xml:"ID,attr"`
	SerialNumber string           `xml:"SerialNumber,attr,omitempty"`
	Software     string           `xml:"Software,attr,omitempty"`
	LightSources []xmlLightSource `xml:"LightSource"`
}

type xmlLightSource struct {
	ID         string  `xml:"ID,attr"`
	Type       string  `xml:"Type,attr"`
	Wavelength float64 `xml:"Wavelength,attr,omitempty"`
}

type xmlImage struct {
	ID              string         `xml:"ID,attr"`
	Name            string         `xml:"Name,attr"`
	AcquisitionDate string         `xml:"AcquisitionDate"`
	StageLabel      *xmlStageLabel `xml:"StageLabel,omitempty"`
	Pixels          xmlPixels      `xml:"Pixels"`
}

type xmlStageLabel struct {
	Name string  `xml:"Name,attr"`
	Z    float64 `xml:"Z,attr"`
}

type xmlPixels struct {
	ID             string     `xml:"ID,attr"`
	DimensionOrder string     `xml:"DimensionOrder,attr"`
	SizeX          int        `xml:"SizeX,attr"`
	SizeY          int        `xml:"SizeY,attr"`
	SizeZ          int        `xml:"SizeZ,attr"`
	SizeT          int        `xml:"SizeT,attr"`
	SizeC          int        `xml:"SizeC,attr"`
	PhysicalSizeX  float64    `xml:"PhysicalSizeX,attr"`
	PhysicalSizeY  float64    `xml:"PhysicalSizeY,attr"`
	PhysicalSizeZ  *float64   `xml:"PhysicalSizeZ,attr,omitempty"`
	Channel        xmlChannel `xml:"Channel"`
	Planes         []xmlPlane `xml:"Plane"`
}

type xmlChannel struct {
	ID             string   `xml:"ID,attr"`
	Name           string   `xml:"Name,attr"`
	ContrastMethod string   `xml:"ContrastMethod,attr"`
	Excitation     *float64 `xml:"ExcitationWavelength,attr,omitempty"`
	LightSourceRef xmlRef   `xml:"LightSourceSettings"`
}

type xmlRef struct {
	ID string `xml:"ID,attr"`
}

type xmlPlane struct {
	TheZ      int      `xml:"TheZ,attr"`
	TheT      int      `xml:"TheT,attr"`
	DeltaT    float64  `xml:"DeltaT,attr"`
	Exposure  *float64 `xml:"ExposureTime,attr,omitempty"`
	PositionX *float64 `xml:"PositionX,attr,omitempty"`
	PositionY *float64 `xml:"PositionY,attr,omitempty"`
	PositionZ *float64 `xml:"PositionZ,attr,omitempty"`
}

type xmlAnnotations struct {
	Map    []xmlMapAnnotation `xml:"MapAnnotation"`
	Tiling *xmlTiling         `xml:"TilingAnnotation,omitempty"`
}

type xmlMapAnnotation struct {
	ID    string `xml:"ID,attr"`
	Key   string `xml:"K,attr"`
	Value string `xml:",chardata"`
}

type xmlTiling struct {
	StitchedID string `xml:"StitchedImage,attr"`
	TileIndex  int    `xml:"TileIndex,attr"`
	Siblings   string `xml:"Siblings,attr,omitempty"`
}

// Serialize renders the document as indented XML.
func Serialize(doc *models.MetadataDocument) ([]byte, error) {
	out := xmlOME{
		Creator: creator,
		Instrument: xmlInstrument{
			ID:           "Instrument:0",
			SerialNumber: doc.DeviceSerial,
			Software:     doc.SoftwareVersion,
		},
	}

	for _, s := range doc.LightSources {
		out.Instrument.LightSources = append(out.Instrument.LightSources, xmlLightSource{
			ID:         fmt.Sprintf("LightSource:%d", s.ID),
			Type:       string(s.Type),
			Wavelength: s.Wavelength,
		})
	}

	date := doc.AcquiredAt.Format(time.RFC3339)
	for i, ch := range doc.Channels {
		img := xmlImage{
			ID:              fmt.Sprintf("Image:%d", i),
			Name:            fmt.Sprintf("%s %s", doc.Name, ch.Name),
			AcquisitionDate: date,
			Pixels: xmlPixels{
				ID:             fmt.Sprintf("Pixels:%d", i),
				DimensionOrder: "XYZTC",
				SizeX:          ch.Shape.X,
				SizeY:          ch.Shape.Y,
				SizeZ:          ch.Shape.Z,
				SizeT:          ch.Shape.T,
				SizeC:          1,
				PhysicalSizeX:  doc.PhysicalSizeX,
				PhysicalSizeY:  doc.PhysicalSizeY,
				Channel: xmlChannel{
					ID:             fmt.Sprintf("Channel:%d", ch.ID),
					Name:           ch.Name,
					ContrastMethod: ch.ContrastMethod,
					LightSourceRef: xmlRef{ID: fmt.Sprintf("LightSource:%d", ch.LightSourceID)},
				},
			},
		}
		if ch.Shape.Z > 1 {
			if z, ok := doc.PhysicalSizeZ.Get(); ok {
				img.Pixels.PhysicalSizeZ = &z
			}
		}
		if ch.Kind.IsFluorescence() && ch.Excitation > 0 {
			wl := ch.Excitation
			img.Pixels.Channel.Excitation = &wl
		}
		for _, l := range doc.StageLabels {
			if l.ChannelID == ch.ID {
				img.StageLabel = &xmlStageLabel{Name: "FL Z-offset", Z: l.ZOffset}
				break
			}
		}
		for _, p := range doc.Planes {
			if p.ChannelID != ch.ID {
				continue
			}
			plane := xmlPlane{TheZ: p.Z, TheT: p.T, DeltaT: p.DeltaT}
			if v, ok := p.Exposure.Get(); ok {
				plane.Exposure = &v
			}
			if v, ok := p.StageX.Get(); ok {
				plane.PositionX = &v
			}
			if v, ok := p.StageY.Get(); ok {
				plane.PositionY = &v
			}
			if v, ok := p.StageZ.Get(); ok {
				plane.PositionZ = &v
			}
			img.Pixels.Planes = append(img.Pixels.Planes, plane)
		}
		out.Images = append(out.Images, img)
	}

	if len(doc.Annotations) > 0 || doc.Tiling != nil {
		ann := &xmlAnnotations{}
		for i, a := range doc.Annotations {
			ann.Map = append(ann.Map, xmlMapAnnotation{
				ID:    fmt.Sprintf("Annotation:%d", i),
				Key:   a.Key,
				Value: a.Value,
			})
		}
		if doc.Tiling != nil {
			ann.Tiling = &xmlTiling{
				StitchedID: doc.Tiling.StitchedID,
				TileIndex:  doc.Tiling.Index,
				Siblings:   strings.Join(doc.Tiling.Siblings, ","),
			}
		}
		out.Annotations = ann
	}

	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("omexml: marshal: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}
