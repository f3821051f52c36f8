package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jaekim/medimap-backend/config"
	"github.com/jaekim/medimap-backend/internal/app/repository"
	"github.com/jaekim/medimap-backend/internal/app/service"
	"github.com/jaekim/medimap-backend/internal/db"
	"github.com/jaekim/medimap-backend/pkg/localdata"
	"github.com/xuri/excelize/v2"
)

// 지방행정 인허가 전체분 XLSX 컬럼 헤더 → RawFacility 필드 매핑
var columnFields = map[string]func(f *localdata.RawFacility, value string){
	"관리번호":     func(f *localdata.RawFacility, v string) { f.ManagementNumber = v },
	"개방서비스명":   func(f *localdata.RawFacility, v string) { f.ServiceName = v },
	"개방서비스아이디": func(f *localdata.RawFacility, v string) { f.ServiceID = v },
	"사업장명":     func(f *localdata.RawFacility, v string) { f.BusinessName = v },
	"업태구분명":    func(f *localdata.RawFacility, v string) { f.BusinessType = v },
	"인허가일자":    func(f *localdata.RawFacility, v string) { f.LicenseDate = v },
	"소재지전화":    func(f *localdata.RawFacility, v string) { f.Phone = v },
	"도로명전체주소":  func(f *localdata.RawFacility, v string) { f.RoadAddress = v },
	"영업상태명":    func(f *localdata.RawFacility, v string) { f.BusinessStatus = v },
	"영업상태구분코드": func(f *localdata.RawFacility, v string) { f.StatusCode = v },
	"데이터갱신구분":  func(f *localdata.RawFacility, v string) { f.UpdateType = v },
	"데이터갱신일자":  func(f *localdata.RawFacility, v string) { f.UpdateDate = v },
	"최종수정시점":   func(f *localdata.RawFacility, v string) { f.LastModified = v },
	"병상수":      func(f *localdata.RawFacility, v string) { f.BedCount = v },
	"의료인수":     func(f *localdata.RawFacility, v string) { f.PersonnelCount = v },
	"진료실수":     func(f *localdata.RawFacility, v string) { f.RoomCount = v },
	"총면적":      func(f *localdata.RawFacility, v string) { f.TotalArea = v },
}

func main() {
	// 명령줄 인자 확인
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	facilityRepo := repository.NewFacilityRepository(db.GetDB())

	// XLSX 파일 읽기
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	raws, err := readFacilitiesFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	facilities, rejected := service.BuildFacilities(raws)
	fmt.Printf("Total facilities to import: %d (rejected: %d)\n", len(facilities), rejected)

	// 사용자 확인
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	upserted, err := facilityRepo.UpsertBatch(facilities)
	if err != nil {
		log.Fatal("Failed to bulk upsert facilities:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Rows affected: %d\n", upserted)
}

func readFacilitiesFromXLSX(filePath string) ([]localdata.RawFacility, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	// 첫 번째 시트 이름 가져오기
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	// 헤더 행에서 컬럼 위치를 찾는다. 전체분 파일은 배포 시기에 따라
	// 컬럼 순서가 달라서 고정 인덱스를 쓰지 않는다.
	setters := make(map[int]func(f *localdata.RawFacility, value string))
	for idx, header := range rows[0] {
		if setter, ok := columnFields[strings.TrimSpace(header)]; ok {
			setters[idx] = setter
		}
	}
	if len(setters) == 0 {
		return nil, fmt.Errorf("no known columns found in header row")
	}

	var raws []localdata.RawFacility
	for i, row := range rows {
		if i == 0 {
			continue
		}

		var raw localdata.RawFacility
		for idx, setter := range setters {
			if idx < len(row) {
				setter(&raw, row[idx])
			}
		}
		raws = append(raws, raw)

		// 진행 상황 출력 (10000개마다)
		if len(raws)%10000 == 0 {
			fmt.Printf("Processed %d rows...\n", len(raws))
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)

	return raws, nil
}
