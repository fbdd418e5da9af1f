package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// CSVOutput writes <basePath>/<folder>/<topic>/data.csv with a header taken from
// the first message of each topic.
type CSVOutput struct {
	basePath string
	folder   string
	files    map[string]*os.File
	writers  map[string]*csv.Writer
	headers  map[string][]string
}

type JSONOutput struct {
	basePath string
	folder   string
	files    map[string]*os.File
}

func NewCSVOutput(basePath, folder string) *CSVOutput {
	return &CSVOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
		writers:  make(map[string]*csv.Writer),
		headers:  make(map[string][]string),
	}
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

func createTopicFile(basePath, folder, topic, name string) (*os.File, error) {
	fullPath := filepath.Join(basePath, folder, topic)
	if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(fullPath, name))
}

func decodeRow(msg []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var row map[string]interface{}
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}

func (c *CSVOutput) WriteMessage(topic string, msg []byte) error {
	row, err := decodeRow(msg)
	if err != nil {
		return err
	}

	csvWriter, ok := c.writers[topic]
	if !ok {
		file, err := createTopicFile(c.basePath, c.folder, topic, "data.csv")
		if err != nil {
			return err
		}
		c.files[topic] = file
		csvWriter = csv.NewWriter(file)
		c.writers[topic] = csvWriter

		headers := c.getHeaders(row)
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
		c.headers[topic] = headers
	}

	record := make([]string, len(c.headers[topic]))
	for i, header := range c.headers[topic] {
		if value, ok := row[header]; ok && value != nil {
			record[i] = fmt.Sprintf("%v", value)
		}
	}

	if err := csvWriter.Write(record); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func (c *CSVOutput) getHeaders(row map[string]interface{}) []string {
	headers := make([]string, 0, len(row))
	for key := range row {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	return headers
}

func (c *CSVOutput) Close() error {
	var lastErr error
	for topic, csvWriter := range c.writers {
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			lastErr = err
		}
		if err := c.files[topic].Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// WriteMessage appends msg as one line of <topic>/data.json.
func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	if !json.Valid(msg) {
		return fmt.Errorf("invalid json message for topic %s", topic)
	}

	file, ok := j.files[topic]
	if !ok {
		var err error
		file, err = createTopicFile(j.basePath, j.folder, topic, "data.json")
		if err != nil {
			return err
		}
		j.files[topic] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err := file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	var lastErr error
	for _, file := range j.files {
		if err := file.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
