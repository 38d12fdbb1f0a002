package vulndb

import (
	"encoding/json"
	"time"

	"github.com/threatlinker/threatlinker/database/models"
	"gorm.io/datatypes"
)

type nistResponse struct {
	ResultsPerPage  int `json:"resultsPerPage"`
	StartIndex      int `json:"startIndex"`
	TotalResults    int `json:"totalResults"`
	Vulnerabilities []struct {
		Cve nistCVE `json:"cve"`
	} `json:"vulnerabilities"`
}

type nistCVE struct {
	ID           string `json:"id"`
	Published    string `json:"published"`
	LastModified string `json:"lastModified"`
	Descriptions []struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	} `json:"descriptions"`
	Metrics struct {
		CvssMetricV2 []struct {
			CvssData json.RawMessage `json:"cvssData"`
		} `json:"cvssMetricV2"`
		CvssMetricV31 []struct {
			CvssData json.RawMessage `json:"cvssData"`
		} `json:"cvssMetricV31"`
	} `json:"metrics"`
}

func fromNVDCVE(nvdCVE nistCVE) models.CVE {
	published, err := time.Parse("2006-01-02T15:04:05.000", nvdCVE.Published)
	if err != nil {
		published = time.Time{}
	}

	var description string
	for _, d := range nvdCVE.Descriptions {
		if d.Lang == "en" {
			description = d.Value
			break
		}
	}

	cve := models.CVE{
		CVE:           nvdCVE.ID,
		Description:   description,
		DatePublished: published,
	}
	if len(nvdCVE.Metrics.CvssMetricV2) > 0 {
		cve.ImpactV2 = datatypes.JSON(nvdCVE.Metrics.CvssMetricV2[0].CvssData)
	}
	if len(nvdCVE.Metrics.CvssMetricV31) > 0 {
		cve.ImpactV3 = datatypes.JSON(nvdCVE.Metrics.CvssMetricV31[0].CvssData)
	}
	return cve
}
