package ml

// MLModel is a fitted binary classifier. Predict returns the predicted class
// and the probability of class 1.
type MLModel interface {
	Predict(features []float64) (int, float64, error)
	NumFeatures() int
}
