// Command seed provisions the database schema and loads a demo roster of
// mentors and students. All seeded accounts share the password "password123".
package main

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/srms-api/internal/models"
	"github.com/campushub/srms-api/internal/repository"
	"github.com/campushub/srms-api/pkg/config"
	"github.com/campushub/srms-api/pkg/database"
)

//go:embed schema.sql
var schema string

const seedPassword = "password123"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE semesters, accounts"); err != nil {
		log.Fatalf("failed to clear existing data: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash seed password: %v", err)
	}

	accounts := repository.NewAccountRepository(db)
	for _, account := range seedAccounts(string(hash)) {
		account := account
		if err := accounts.Create(ctx, &account); err != nil {
			log.Fatalf("failed to seed %s: %v", account.Email, err)
		}
	}

	fmt.Println("Database seeded successfully!")
	fmt.Println()
	fmt.Println("=== Login Credentials ===")
	fmt.Println("Mentors:")
	fmt.Println("  CSE Year 1: rajesh.cse1@college.edu / " + seedPassword)
	fmt.Println("  CSE Year 2: priya.cse2@college.edu / " + seedPassword)
	fmt.Println("  CSE Year 3: amit.cse3@college.edu / " + seedPassword)
	fmt.Println("  CSE Year 4: sneha.cse4@college.edu / " + seedPassword)
	fmt.Println("  ECE Year 1: vikram.ece1@college.edu / " + seedPassword)
	fmt.Println("  ECE Year 2: anjali.ece2@college.edu / " + seedPassword)
	fmt.Println("Students: all use " + seedPassword)
}

func seedAccounts(passwordHash string) []models.Account {
	mentor := func(name, email string, department models.Department, year int) models.Account {
		return models.Account{
			Name:         name,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         models.RoleMentor,
			Department:   department,
			Year:         year,
		}
	}
	student := func(name, email, roll string, department models.Department, year int, phone, gender, dob, address, parentName, parentContact string) models.Account {
		born, _ := time.Parse("2006-01-02", dob)
		return models.Account{
			Name:          name,
			Email:         email,
			PasswordHash:  passwordHash,
			Role:          models.RoleStudent,
			Department:    department,
			Year:          year,
			RollNumber:    &roll,
			PhoneNumber:   phone,
			Gender:        gender,
			DateOfBirth:   &born,
			Address:       address,
			ParentName:    parentName,
			ParentContact: parentContact,
		}
	}

	return []models.Account{
		mentor("Dr. Rajesh Kumar", "rajesh.cse1@college.edu", models.DepartmentCSE, 1),
		mentor("Dr. Priya Sharma", "priya.cse2@college.edu", models.DepartmentCSE, 2),
		mentor("Dr. Amit Patel", "amit.cse3@college.edu", models.DepartmentCSE, 3),
		mentor("Dr. Sneha Reddy", "sneha.cse4@college.edu", models.DepartmentCSE, 4),
		mentor("Dr. Vikram Singh", "vikram.ece1@college.edu", models.DepartmentECE, 1),
		mentor("Dr. Anjali Gupta", "anjali.ece2@college.edu", models.DepartmentECE, 2),

		student("Rahul Verma", "rahul.verma@student.edu", "CSE001", models.DepartmentCSE, 1,
			"9876543210", "Male", "2005-03-15", "123 MG Road, Bangalore", "Mr. Suresh Verma", "9876543211"),
		student("Ananya Iyer", "ananya.iyer@student.edu", "CSE002", models.DepartmentCSE, 1,
			"9876543212", "Female", "2005-07-22", "456 Brigade Road, Bangalore", "Mr. Ramesh Iyer", "9876543213"),
		student("Karthik Menon", "karthik.menon@student.edu", "CSE003", models.DepartmentCSE, 1,
			"9876543214", "Male", "2005-05-10", "789 Indiranagar, Bangalore", "Mr. Vijay Menon", "9876543215"),
		student("Sneha Kapoor", "sneha.kapoor@student.edu", "CSE101", models.DepartmentCSE, 2,
			"9876543220", "Female", "2004-04-18", "321 Koramangala, Bangalore", "Mr. Anil Kapoor", "9876543221"),
		student("Arjun Nair", "arjun.nair@student.edu", "CSE102", models.DepartmentCSE, 2,
			"9876543222", "Male", "2004-09-25", "654 Whitefield, Bangalore", "Mr. Sunil Nair", "9876543223"),
		student("Meera Krishnan", "meera.krishnan@student.edu", "ECE001", models.DepartmentECE, 1,
			"9876543230", "Female", "2005-06-12", "987 Jayanagar, Bangalore", "Mr. Mohan Krishnan", "9876543231"),
	}
}
