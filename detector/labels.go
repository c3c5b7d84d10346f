package detector

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels []string

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// LabelIndex returns the class ID of the named label, matched case
// insensitively
func LabelIndex(labels []string, name string) (int, error) {

	name = strings.TrimSpace(name)

	for i, label := range labels {
		if strings.EqualFold(label, name) {
			return i, nil
		}
	}

	return -1, fmt.Errorf("label %q not found in %d labels", name, len(labels))
}
