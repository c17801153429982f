package model

import "time"

// TrainingSample is one labeled observation for the waste classifier.
type TrainingSample struct {
	ItemSnapshot
	SeasonalFactor   float64 `json:"seasonal_factor"`
	WasteProbability float64 `json:"waste_probability"`
	WillExpireUnsold bool    `json:"will_expire_unsold"`
}

// TrainingMetrics summarizes the last training run.
type TrainingMetrics struct {
	ModelName       string    `json:"model_name"`
	Accuracy        float64   `json:"accuracy"`
	Precision       float64   `json:"precision"`
	Recall          float64   `json:"recall"`
	F1              float64   `json:"f1_score"`
	CVScore         float64   `json:"cv_score"`
	TrainedAt       time.Time `json:"training_date"`
	TrainingSamples int       `json:"training_samples"`
}

// TrainStatus is the outcome of a train or retrain request.
type TrainStatus string

const (
	TrainStatusSuccess TrainStatus = "success"
	TrainStatusError   TrainStatus = "error"
)

// TrainResult is returned by train/retrain instead of an error.
type TrainResult struct {
	Status          TrainStatus      `json:"status"`
	TrainingSamples int              `json:"training_samples,omitempty"`
	Metrics         *TrainingMetrics `json:"performance,omitempty"`
	Error           string           `json:"error,omitempty"`
	RetrainedAt     time.Time        `json:"retrain_date"`
}
