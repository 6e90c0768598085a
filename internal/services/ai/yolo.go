package ai

import (
	"fmt"
	"image"
	"os"
	"sync"

	"platereader/internal/logger"
	"platereader/internal/models"
	"platereader/internal/services/ai/postprocess"

	"gocv.io/x/gocv"
)

// YOLOOptions configures a YOLODetector.
type YOLOOptions struct {
	ModelPath    string
	Labels       []string
	InputSize    int
	NMSThreshold float64
}

// YOLODetector runs an ultralytics YOLOv8 model exported to ONNX through the
// OpenCV DNN module.
type YOLODetector struct {
	net       gocv.Net
	labels    []string
	inputSize int
	nms       float64
	logger    *logger.Logger
	mu        sync.Mutex // gocv.Net is not safe for concurrent Forward calls
}

// NewYOLODetector loads the network from opts.ModelPath.
func NewYOLODetector(opts YOLOOptions, logger *logger.Logger) (*YOLODetector, error) {
	if _, err := os.Stat(opts.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", opts.ModelPath)
	}
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}
	if len(opts.Labels) == 0 {
		return nil, fmt.Errorf("no class labels for model %s", opts.ModelPath)
	}

	net := gocv.ReadNetFromONNX(opts.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network: %s", opts.ModelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	logger.Info("Detection network %s initialized (%d classes)", opts.ModelPath, len(opts.Labels))
	return &YOLODetector{
		net:       net,
		labels:    opts.Labels,
		inputSize: opts.InputSize,
		nms:       opts.NMSThreshold,
		logger:    logger,
	}, nil
}

// Detect returns boxes scoring at least minConfidence, after non-maximum suppression.
func (d *YOLODetector) Detect(img image.Image, minConfidence float64) ([]models.Detection, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	blob := gocv.BlobFromImage(
		mat,
		1.0/255.0,
		image.Pt(d.inputSize, d.inputSize),
		gocv.NewScalar(0, 0, 0, 0),
		true,
		false,
	)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	// ultralytics export: [1, 4+classes, anchors]
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", sizes)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	geo := postprocess.Geometry{
		ScaleX: float64(mat.Cols()) / float64(d.inputSize),
		ScaleY: float64(mat.Rows()) / float64(d.inputSize),
		Width:  mat.Cols(),
		Height: mat.Rows(),
	}
	boxes, err := postprocess.DecodeYOLOv8(data, sizes[1], sizes[2], geo, minConfidence)
	if err != nil {
		return nil, err
	}
	boxes = postprocess.NMS(boxes, d.nms)

	results := make([]models.Detection, 0, len(boxes))
	for _, b := range boxes {
		results = append(results, models.Detection{
			Left:       b.Left,
			Top:        b.Top,
			Right:      b.Right,
			Bottom:     b.Bottom,
			Confidence: b.Score,
			Label:      postprocess.Label(d.labels, b.Class),
		})
	}
	return results, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	if !d.net.Empty() {
		return d.net.Close()
	}
	return nil
}
