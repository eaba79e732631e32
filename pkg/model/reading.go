package model

import "time"

// Vector3 is a 3-axis sample from the IMU.
type Vector3 struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	Z float64 `json:"z" bson:"z"`
}

// SensorInput is the payload posted by the embedded system. Light and
// sound are raw 12-bit ADC values.
type SensorInput struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	VOC           int     `json:"voc" validate:"gte=0"`
	Light         int     `json:"light" validate:"gte=0,lte=4095"`
	Sound         int     `json:"sound" validate:"gte=0,lte=4095"`
	Accelerometer Vector3 `json:"accelerometer"`
	Gyroscope     Vector3 `json:"gyroscope"`
}

// SensorReading is a stored reading. ID is the store-assigned identifier
// rendered as a string; Timestamp is assigned server-side at insert time.
type SensorReading struct {
	ID            string    `json:"id" bson:"-"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	Temperature   float64   `json:"temperature" bson:"temperature"`
	Humidity      float64   `json:"humidity" bson:"humidity"`
	VOC           int       `json:"voc" bson:"voc"`
	Light         int       `json:"light" bson:"light"`
	Sound         int       `json:"sound" bson:"sound"`
	Accelerometer Vector3   `json:"accelerometer" bson:"accelerometer"`
	Gyroscope     Vector3   `json:"gyroscope" bson:"gyroscope"`
}

// StoreStats is a best-effort snapshot of the reading collection.
type StoreStats struct {
	Database      string   `json:"database"`
	Collection    string   `json:"collection"`
	DocumentCount int64    `json:"document_count"`
	Exists        bool     `json:"exists"`
	Indexes       []string `json:"indexes"`
}
