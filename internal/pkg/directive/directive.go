package directive

import (
	"encoding/xml"

	"github.com/airenas/go-app/pkg/goapp"
)

// fallback returned if markup rendering itself fails -
// the provider must always get a parseable document
const fallbackXML = `<Response><Say>Sorry, a system error occurred. Goodbye.</Say><Hangup></Hangup></Response>`

type say struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type record struct {
	XMLName  xml.Name `xml:"Record"`
	Action   string   `xml:"action,attr"`
	Method   string   `xml:"method,attr"`
	PlayBeep bool     `xml:"playBeep,attr"`
}

type hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Response is an ordered voice directive document for the telephony provider
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Items   []any
}

// New creates an empty directive document
func New() *Response {
	return &Response{}
}

// Say appends a spoken text directive
func (r *Response) Say(text string) *Response {
	r.Items = append(r.Items, say{Text: text})
	return r
}

// Pause appends a pause of the given length in seconds
func (r *Response) Pause(seconds int) *Response {
	r.Items = append(r.Items, pause{Length: seconds})
	return r
}

// Record appends a record directive posting the recording to action
func (r *Response) Record(action string) *Response {
	r.Items = append(r.Items, record{Action: action, Method: "POST", PlayBeep: true})
	return r
}

// Hangup appends a hang-up directive
func (r *Response) Hangup() *Response {
	r.Items = append(r.Items, hangup{})
	return r
}

// Render returns the markup document
func (r *Response) Render() string {
	b, err := xml.Marshal(r)
	if err != nil {
		goapp.Log.Error().Err(err).Msg("can't marshal voice directive")
		return fallbackXML
	}
	return string(b)
}
