package localdata

import (
	"encoding/json"
	"encoding/xml"
)

// ServiceIDs 의료기관 유형별 개방서비스 ID
var ServiceIDs = map[string]string{
	"병원": "01_01_01_P",
	"의원": "01_01_02_P",
	"약국": "01_01_06_P",
}

// RawFacility 개방 API 한 행의 원본 필드.
// 모든 값은 문자열로 도착하며, 타입 변환은 변환 계층에서 수행한다.
type RawFacility struct {
	ManagementNumber string `json:"mgtNo"`       // 관리번호
	ServiceName      string `json:"opnSvcNm"`    // 개방서비스명
	ServiceID        string `json:"opnSvcId"`    // 개방서비스ID
	BusinessName     string `json:"bplcNm"`      // 사업장명
	BusinessType     string `json:"uptaeNm"`     // 업태구분명
	LicenseDate      string `json:"apvPermYmd"`  // 인허가일자
	Phone            string `json:"siteTel"`     // 전화번호
	RoadAddress      string `json:"rdnWhlAddr"`  // 도로명주소
	BusinessStatus   string `json:"trdStateNm"`  // 영업상태명
	StatusCode       string `json:"trdStateGbn"` // 영업상태 코드
	UpdateType       string `json:"updateGbn"`   // 데이터갱신구분 (I/U)
	UpdateDate       string `json:"updateDt"`    // 데이터갱신일자
	LastModified     string `json:"lastModTs"`   // 최종수정시각

	// 규모 필드 (병원/의원 확장 컬럼, 빈 값 가능)
	BedCount       string `json:"bedCnt"`      // 병상수
	PersonnelCount string `json:"drTotCnt"`    // 의료인수
	RoomCount      string `json:"clncRoomCnt"` // 진료실수
	TotalArea      string `json:"totArea"`     // 시설 면적
}

// xmlRow XML 응답의 <row> 요소. 태그명이 JSON 키와 동일하다.
type xmlRow struct {
	MgtNo       string `xml:"mgtNo"`
	OpnSvcNm    string `xml:"opnSvcNm"`
	OpnSvcID    string `xml:"opnSvcId"`
	BplcNm      string `xml:"bplcNm"`
	UptaeNm     string `xml:"uptaeNm"`
	ApvPermYmd  string `xml:"apvPermYmd"`
	SiteTel     string `xml:"siteTel"`
	RdnWhlAddr  string `xml:"rdnWhlAddr"`
	TrdStateNm  string `xml:"trdStateNm"`
	TrdStateGbn string `xml:"trdStateGbn"`
	UpdateGbn   string `xml:"updateGbn"`
	UpdateDt    string `xml:"updateDt"`
	LastModTs   string `xml:"lastModTs"`
	BedCnt      string `xml:"bedCnt"`
	DrTotCnt    string `xml:"drTotCnt"`
	ClncRoomCnt string `xml:"clncRoomCnt"`
	TotArea     string `xml:"totArea"`
}

func (r xmlRow) toRaw() RawFacility {
	return RawFacility{
		ManagementNumber: r.MgtNo,
		ServiceName:      r.OpnSvcNm,
		ServiceID:        r.OpnSvcID,
		BusinessName:     r.BplcNm,
		BusinessType:     r.UptaeNm,
		LicenseDate:      r.ApvPermYmd,
		Phone:            r.SiteTel,
		RoadAddress:      r.RdnWhlAddr,
		BusinessStatus:   r.TrdStateNm,
		StatusCode:       r.TrdStateGbn,
		UpdateType:       r.UpdateGbn,
		UpdateDate:       r.UpdateDt,
		LastModified:     r.LastModTs,
		BedCount:         r.BedCnt,
		PersonnelCount:   r.DrTotCnt,
		RoomCount:        r.ClncRoomCnt,
		TotalArea:        r.TotArea,
	}
}

// xmlResponse 전체 XML 응답. row 요소는 중첩 깊이가 응답마다 달라
// 어느 깊이에서든 수집한다.
type xmlResponse struct {
	XMLName    xml.Name `xml:"result"`
	TotalCount int      `xml:"header>paging>totalCount"`
	Rows       []xmlRow `xml:"body>rows>row"`
}

// jsonResponse JSON 응답 구조. 공급자 쪽 응답 변형이 잦아
// rows가 단일 객체로 오는 경우까지 허용한다.
type jsonResponse struct {
	Result struct {
		Header struct {
			Paging struct {
				TotalCount int `json:"totalCount"`
			} `json:"paging"`
			Process struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"process"`
		} `json:"header"`
		Body struct {
			Rows []struct {
				Row []RawFacility `json:"row"`
			} `json:"rows"`
		} `json:"body"`
	} `json:"result"`
}

func (r jsonResponse) rows() []RawFacility {
	var out []RawFacility
	for _, group := range r.Result.Body.Rows {
		out = append(out, group.Row...)
	}
	return out
}

func parseJSONBody(body []byte) (*jsonResponse, error) {
	var resp jsonResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
