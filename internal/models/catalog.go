package models

// Metrics are the benchmark percentages the dashboard charts. They are static
// figures, not measured by this program.
type Metrics struct {
	Accuracy  int `json:"accuracy"`
	Precision int `json:"precision"`
	Recall    int `json:"recall"`
	F1Score   int `json:"f1Score"`
}

// Info describes one algorithm for display.
type Info struct {
	Name        Algorithm `json:"name"`
	DisplayName string    `json:"displayName"`
	ShortName   string    `json:"shortName"`
	Description string    `json:"description"`
	Metrics     Metrics   `json:"metrics"`
	Default     bool      `json:"default,omitempty"`
}

var catalog = map[Algorithm]Info{
	KNN: {
		Name:        KNN,
		DisplayName: "K-Nearest Neighbors",
		ShortName:   "KNN",
		Description: "KNN classifies a website based on the majority class of its k nearest neighbors in the feature space.",
		Metrics:     Metrics{Accuracy: 92, Precision: 94, Recall: 90, F1Score: 92},
	},
	NaiveBayes: {
		Name:        NaiveBayes,
		DisplayName: "Naive Bayes",
		ShortName:   "Naive Bayes",
		Description: "Naive Bayes applies Bayes' theorem with an assumption of independence between features.",
		Metrics:     Metrics{Accuracy: 88, Precision: 86, Recall: 91, F1Score: 88},
	},
	AdaBoost: {
		Name:        AdaBoost,
		DisplayName: "AdaBoost",
		ShortName:   "AdaBoost",
		Description: "AdaBoost combines multiple \"weak\" classifiers to create a strong classifier for phishing detection.",
		Metrics:     Metrics{Accuracy: 93, Precision: 92, Recall: 94, F1Score: 93},
	},
	SGD: {
		Name:        SGD,
		DisplayName: "Stochastic Gradient Descent",
		ShortName:   "SGD",
		Description: "SGD is an optimization method used to train various linear models for phishing detection.",
		Metrics:     Metrics{Accuracy: 85, Precision: 83, Recall: 86, F1Score: 84},
	},
	RandomForest: {
		Name:        RandomForest,
		DisplayName: "Random Forest",
		ShortName:   "Random Forest",
		Description: "Random Forest builds multiple decision trees and merges their predictions for robust phishing detection.",
		Metrics:     Metrics{Accuracy: 96, Precision: 95, Recall: 97, F1Score: 96},
		Default:     true,
	},
	DecisionTree: {
		Name:        DecisionTree,
		DisplayName: "Decision Tree",
		ShortName:   "Decision Tree",
		Description: "Decision Tree creates a flowchart-like structure to classify websites based on their features.",
		Metrics:     Metrics{Accuracy: 89, Precision: 87, Recall: 90, F1Score: 88},
	},
}

// Catalog lists every algorithm's Info in catalog order.
func Catalog() []Info {
	out := make([]Info, 0, len(ordered))
	for _, a := range ordered {
		out = append(out, catalog[a])
	}
	return out
}

// Describe returns the Info for a.
func Describe(a Algorithm) (Info, bool) {
	info, ok := catalog[a]
	return info, ok
}

// Best returns the algorithm with the highest value for the named metric
// ("accuracy", "precision", "recall", "f1Score"). Ties keep catalog order.
func Best(metric string) (Info, bool) {
	var (
		best  Info
		found bool
		top   = -1
	)
	for _, info := range Catalog() {
		var val int
		switch metric {
		case "accuracy":
			val = info.Metrics.Accuracy
		case "precision":
			val = info.Metrics.Precision
		case "recall":
			val = info.Metrics.Recall
		case "f1Score", "f1":
			val = info.Metrics.F1Score
		default:
			return Info{}, false
		}
		if val > top {
			top, best, found = val, info, true
		}
	}
	return best, found
}
