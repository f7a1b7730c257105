package fns

import "encoding/json"

// Record is a single purchased item. Price is in minor currency units.
type Record struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
}

// NewRecord creates a Record
func NewRecord(name string, quantity, price int64) Record {
	return Record{Name: name, Quantity: quantity, Price: price}
}

// Bill is an ordered list of records with a running total in minor units.
// The total is only ever updated by Add.
type Bill struct {
	records []Record
	total   int64
}

// NewBill creates an empty Bill
func NewBill() *Bill {
	return &Bill{records: []Record{}}
}

// Add appends a record and adds price*quantity to the total
func (b *Bill) Add(r Record) {
	b.total += r.Price * r.Quantity
	b.records = append(b.records, r)
}

// Records returns a copy of the records in insertion order
func (b *Bill) Records() []Record {
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Total returns the sum of price*quantity over all added records
func (b *Bill) Total() int64 {
	return b.total
}

type billJSON struct {
	Records []Record `json:"records"`
	Total   int64    `json:"total"`
}

// MarshalJSON renders the bill as {"records": [...], "total": N}
func (b *Bill) MarshalJSON() ([]byte, error) {
	return json.Marshal(billJSON{Records: b.Records(), Total: b.total})
}

// UnmarshalJSON rebuilds the bill through Add so the total stays consistent
// with the records regardless of the encoded total.
func (b *Bill) UnmarshalJSON(data []byte) error {
	var raw billJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Bill{records: []Record{}}
	for _, r := range raw.Records {
		b.Add(r)
	}
	return nil
}
