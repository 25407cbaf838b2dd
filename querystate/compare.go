package querystate

import "net/url"

// legacy keys from older compare links
var legacyCompareKeys = []string{"id", "comparedId", "compareId"}

type Compare struct {
	AID string `json:"aid"`
	BID string `json:"bid"`
}

func DecodeCompare(q url.Values) Compare {
	return Compare{AID: q.Get("aid"), BID: q.Get("bid")}
}

func (c Compare) Encode(prev url.Values) url.Values {
	q := clone(prev)
	for _, k := range legacyCompareKeys {
		q.Del(k)
	}
	setOrDelete(q, "aid", c.AID)
	setOrDelete(q, "bid", c.BID)
	return q
}
