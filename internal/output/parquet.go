package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/chrisdamba/visitconsensus/internal/cloudwriter"
	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// ParquetOutput keeps one parquet writer per topic, on local disk or in a
// bucket. Rows are flushed when the output is closed.
type ParquetOutput struct {
	basePath           string
	folder             string
	mu                 sync.Mutex
	writers            map[string]*writer.JSONWriter
	files              map[string]source.ParquetFile
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
}

func NewParquetOutput(ctx context.Context, config *models.Config) (*ParquetOutput, error) {
	if config.OutputDestination != "s3" {
		return NewLocalParquetOutput(config.OutputPath, config.OutputFolder), nil
	}

	factory, err := cloudwriter.NewS3WriterFactory(ctx, config.CloudStorage.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
	}
	return NewCloudParquetOutput(factory, config.CloudStorage.BucketName, config.OutputFolder), nil
}

func NewLocalParquetOutput(basePath, folder string) *ParquetOutput {
	return &ParquetOutput{
		basePath: basePath,
		folder:   folder,
		writers:  make(map[string]*writer.JSONWriter),
		files:    make(map[string]source.ParquetFile),
	}
}

func NewCloudParquetOutput(factory cloudwriter.CloudWriterFactory, bucket, folder string) *ParquetOutput {
	p := NewLocalParquetOutput("", folder)
	p.cloudWriterFactory = factory
	p.cloudBucketName = bucket
	return p
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pw, ok := p.writers[topic]
	if !ok {
		var err error
		if pw, err = p.createNewWriter(topic); err != nil {
			return err
		}
	}

	if err := pw.Write(string(msg)); err != nil {
		return fmt.Errorf("failed to write %s row: %w", topic, err)
	}
	return nil
}

func (p *ParquetOutput) createNewWriter(topic string) (*writer.JSONWriter, error) {
	row, ok := topicRows[topic]
	if !ok {
		return nil, fmt.Errorf("no parquet schema for topic %s", topic)
	}
	schema, err := jsonSchema(row)
	if err != nil {
		return nil, err
	}

	var fw source.ParquetFile
	if p.cloudWriterFactory != nil {
		objectPath := path.Join(p.folder, topic, "data.parquet")
		cw, err := p.cloudWriterFactory.NewWriter(p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = NewCloudParquetFile(cw)
	} else {
		dir := filepath.Join(p.basePath, p.folder, topic)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, err
		}
		fw, err = local.NewLocalFileWriter(filepath.Join(dir, "data.parquet"))
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	pw, err := writer.NewJSONWriter(schema, fw, 4)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	p.writers[topic] = pw
	p.files[topic] = fw
	return pw, nil
}

func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for topic, pw := range p.writers {
		if err := pw.WriteStop(); err != nil {
			lastErr = fmt.Errorf("failed to flush %s: %w", topic, err)
		}
		if err := p.files[topic].Close(); err != nil {
			lastErr = fmt.Errorf("failed to close %s: %w", topic, err)
		}
	}
	p.writers = make(map[string]*writer.JSONWriter)
	p.files = make(map[string]source.ParquetFile)
	return lastErr
}

type schemaField struct {
	Tag string `json:"Tag"`
}

type schemaRoot struct {
	Tag    string        `json:"Tag"`
	Fields []schemaField `json:"Fields"`
}

// jsonSchema derives a parquet-go JSON schema from the json tags of a flat row.
func jsonSchema(row interface{}) (string, error) {
	t := reflect.TypeOf(row)
	root := schemaRoot{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		var typ string
		switch f.Type.Kind() {
		case reflect.String:
			typ = "type=BYTE_ARRAY, convertedtype=UTF8"
		case reflect.Int, reflect.Int32, reflect.Int64:
			typ = "type=INT64"
		case reflect.Float32, reflect.Float64:
			typ = "type=DOUBLE"
		case reflect.Bool:
			typ = "type=BOOLEAN"
		default:
			return "", fmt.Errorf("unsupported parquet field %s of kind %s", f.Name, f.Type.Kind())
		}
		root.Fields = append(root.Fields, schemaField{
			Tag: fmt.Sprintf("name=%s, %s, repetitiontype=REQUIRED", name, typ),
		})
	}
	b, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CloudParquetFile adapts a CloudWriter to the write side of source.ParquetFile.
type CloudParquetFile struct {
	cloudWriter cloudwriter.CloudWriter
	offset      int64
}

func NewCloudParquetFile(cloudWriter cloudwriter.CloudWriter) *CloudParquetFile {
	return &CloudParquetFile{cloudWriter: cloudWriter}
}

// Open and Create return the receiver; the object is created on first write.
func (c *CloudParquetFile) Open(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Create(name string) (source.ParquetFile, error) {
	return c, nil
}

func (c *CloudParquetFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		c.offset = offset
	case io.SeekCurrent:
		c.offset += offset
	default:
		return 0, fmt.Errorf("seek from end not supported for cloud storage")
	}
	return c.offset, nil
}

func (c *CloudParquetFile) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("read not supported for cloud storage")
}

func (c *CloudParquetFile) Write(p []byte) (int, error) {
	n, err := c.cloudWriter.Write(p)
	c.offset += int64(n)
	return n, err
}

func (c *CloudParquetFile) Close() error {
	return c.cloudWriter.Close()
}
