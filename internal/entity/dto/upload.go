package dto

// UploadResult 单个文件的上传结果。
type UploadResult struct {
	Success             bool   `json:"success"`
	Message             string `json:"message,omitempty"`
	ImageID             uint   `json:"image_id,omitempty"`
	Filename            string `json:"filename,omitempty"`
	OriginalFilename    string `json:"original_filename,omitempty"`
	FilePath            string `json:"file_path,omitempty"`
	NeedsManualMetadata bool   `json:"needs_manual_metadata"`
}

// BatchUploadResponse 批量上传响应，逐文件返回结果。
type BatchUploadResponse struct {
	TotalFiles int            `json:"total_files"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Results    []UploadResult `json:"results"`
}
